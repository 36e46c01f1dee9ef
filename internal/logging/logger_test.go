package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The package keeps global state, so the lifecycle is exercised in one
// ordered test.
func TestLoggingLifecycle(t *testing.T) {
	workspace, err := os.MkdirTemp("", "graft-logging")
	require.NoError(t, err)
	defer os.RemoveAll(workspace)

	t.Run("disabled mode writes nothing", func(t *testing.T) {
		require.NoError(t, Initialize(workspace, Options{DebugMode: false}))
		assert.False(t, IsDebugMode())

		Scan("this goes nowhere")
		_, statErr := os.Stat(filepath.Join(workspace, ".graft", "logs"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("empty workspace rejected", func(t *testing.T) {
		assert.Error(t, Initialize("", Options{DebugMode: true}))
	})

	t.Run("debug mode writes category files", func(t *testing.T) {
		require.NoError(t, Initialize(workspace, Options{DebugMode: true, Level: "debug"}))
		defer CloseAll()

		Scan("indexed %d modules", 3)
		ScanDebug("worker detail")
		ExecWarn("phase hiccup")

		entries, readErr := os.ReadDir(filepath.Join(workspace, ".graft", "logs"))
		require.NoError(t, readErr)

		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assertContainsCategory(t, names, "scan")
		assertContainsCategory(t, names, "exec")
		assertContainsCategory(t, names, "boot")
	})

	t.Run("disabled category is a no-op", func(t *testing.T) {
		require.NoError(t, Initialize(workspace, Options{
			DebugMode:  true,
			Level:      "debug",
			Categories: map[string]bool{"plan": false},
		}))
		defer CloseAll()

		assert.False(t, IsCategoryEnabled(CategoryPlan))
		assert.True(t, IsCategoryEnabled(CategoryScan))
		Plan("dropped on the floor")
	})

	t.Run("timer returns elapsed", func(t *testing.T) {
		d := StartTimer(CategoryScan, "noop").Stop()
		assert.GreaterOrEqual(t, d.Nanoseconds(), int64(0))
	})
}

func assertContainsCategory(t *testing.T, names []string, category string) {
	t.Helper()
	for _, n := range names {
		if strings.HasSuffix(n, "_"+category+".log") {
			return
		}
	}
	t.Errorf("no log file for category %s in %v", category, names)
}
