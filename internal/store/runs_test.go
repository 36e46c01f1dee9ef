package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *RunStore {
	t.Helper()
	dir, err := os.MkdirTemp("", "graft-store")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	s, err := Open(filepath.Join(dir, "nested", "graft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string, started time.Time) RunRecord {
	return RunRecord{
		ID:             id,
		Root:           "/tmp/project",
		StartedAt:      started,
		FinishedAt:     started.Add(time.Minute),
		Modules:        7,
		ParseFailures:  1,
		Endpoints:      3,
		Models:         2,
		DebtItems:      4,
		TestFiles:      2,
		InstallOutcome: "skipped",
		TestsOutcome:   "succeeded",
		BuildOutcome:   "failed",
		BuildExit:      1,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	s := openTempStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRun(sampleRecord("run-old", base)))
	require.NoError(t, s.RecordRun(sampleRecord("run-new", base.Add(time.Hour))))

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID, "newest first")
	assert.Equal(t, "run-old", runs[1].ID)

	got := runs[1]
	assert.Equal(t, "/tmp/project", got.Root)
	assert.Equal(t, 7, got.Modules)
	assert.Equal(t, 1, got.ParseFailures)
	assert.Equal(t, "failed", got.BuildOutcome)
	assert.Equal(t, 1, got.BuildExit)
	assert.True(t, got.StartedAt.Equal(base))
}

func TestListRunsLimit(t *testing.T) {
	s := openTempStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := sampleRecord("run", base.Add(time.Duration(i)*time.Minute))
		rec.ID = rec.ID + string(rune('a'+i))
		require.NoError(t, s.RecordRun(rec))
	}

	runs, err := s.ListRuns(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	s := openTempStore(t)

	rec := sampleRecord("run-dup", time.Now())
	require.NoError(t, s.RecordRun(rec))
	assert.Error(t, s.RecordRun(rec), "run id is the primary key")
}

func TestListRunsEmpty(t *testing.T) {
	s := openTempStore(t)
	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
