package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/config"
	"graft/internal/execute"
	"graft/internal/plan"
	"graft/internal/store"
)

// okRunner reports exit 0 for every command without running anything.
type okRunner struct {
	calls [][]string
}

func (r *okRunner) Run(_ context.Context, command []string, _ string) (*execute.CommandResult, error) {
	r.calls = append(r.calls, command)
	return &execute.CommandResult{ExitCode: 0}, nil
}

func writeProject(t *testing.T) string {
	t.Helper()
	root, err := os.MkdirTemp("", "graft-pipeline")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	files := map[string]string{
		"api.py": `import models

@app.get("/users")
def list_users():
    return []
`,
		"models.py": `class User(Base):
    id = Column(Integer, primary_key=True)
`,
		"broken.py":        "def oops(:\n",
		"requirements.txt": "flask\n",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
	}
	return root
}

func TestRunFullPipeline(t *testing.T) {
	root := writeProject(t)
	runner := &okRunner{}

	p, err := New(config.DefaultConfig(), WithRunner(runner))
	require.NoError(t, err)

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())

	require.Len(t, report.Phases, 3)
	assert.True(t, report.Succeeded())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, root, report.Root)

	// install and tests ran; build skipped (no Dockerfile).
	require.Len(t, runner.calls, 2)
	assert.Equal(t, "pip", runner.calls[0][0])
	assert.Equal(t, "pytest", runner.calls[1][0])
	assert.Equal(t, execute.OutcomeSkipped, report.Phases[2].Outcome)

	// Scaffold skeleton and endpoint stub are in place.
	stub := filepath.Join(root, "integration", "adapters", "list_users_adapter.py")
	_, err = os.Stat(stub)
	require.NoError(t, err)

	// Artifacts landed under .graft/artifacts.
	artifactDir := filepath.Join(root, ".graft", "artifacts")
	for _, name := range []string{"analysis.json", "plan.json", "report.json"} {
		_, err := os.Stat(filepath.Join(artifactDir, name))
		require.NoError(t, err, name)
	}

	var blueprint plan.IntegrationPlan
	data, err := os.ReadFile(filepath.Join(artifactDir, "plan.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &blueprint))
	assert.Len(t, blueprint.Components, 3, "baseline pair plus the User model")
	assert.Len(t, blueprint.Interfaces, 2, "one endpoint plus the control surface")
}

func TestRunSurvivesParseFailures(t *testing.T) {
	root := writeProject(t)
	p, err := New(config.DefaultConfig(), WithRunner(&okRunner{}))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), root)
	require.NoError(t, err, "a malformed source file never aborts the run")
}

func TestRunMissingRoot(t *testing.T) {
	p, err := New(config.DefaultConfig(), WithRunner(&okRunner{}))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "/nonexistent/graft-project")
	require.Error(t, err)

	var rootErr *ErrRootUnreadable
	require.True(t, errors.As(err, &rootErr))
	assert.Equal(t, "/nonexistent/graft-project", rootErr.Root)
}

func TestRunRootIsFile(t *testing.T) {
	f, err := os.CreateTemp("", "graft-not-a-dir")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	require.NoError(t, f.Close())

	p, err := New(config.DefaultConfig(), WithRunner(&okRunner{}))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), f.Name())
	var rootErr *ErrRootUnreadable
	require.True(t, errors.As(err, &rootErr))
}

func TestRunRecordsHistory(t *testing.T) {
	root := writeProject(t)

	dir, err := os.MkdirTemp("", "graft-history")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	history, err := store.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer history.Close()

	p, err := New(config.DefaultConfig(), WithRunner(&okRunner{}), WithHistory(history))
	require.NoError(t, err)

	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)

	runs, err := history.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Modules, "the broken file is excluded from the index")
	assert.Equal(t, 1, runs[0].ParseFailures)
	assert.Equal(t, 1, runs[0].Endpoints)
	assert.Equal(t, "succeeded", runs[0].TestsOutcome)
	assert.Equal(t, "skipped", runs[0].BuildOutcome)
}

func TestArtifactsDisabled(t *testing.T) {
	root := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Artifact.Enabled = false

	p, err := New(cfg, WithRunner(&okRunner{}))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), root)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, ".graft", "artifacts"))
	assert.True(t, os.IsNotExist(err))
}
