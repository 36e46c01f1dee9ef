package analyze

import (
	"path/filepath"
	"strings"

	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/scan"
)

// analyzeCoverage correlates test-convention files back to target modules.
// A test file maps to the first scanned module (sorted key order) whose
// path contains the test file's stripped stem; unmatched test files are
// still counted in TestFileCount.
func analyzeCoverage(actx *scan.AnalysisContext, cfg *config.AnalyzeConfig) CoverageSummary {
	summary := CoverageSummary{TestsByModule: make(map[string][]string)}
	keys := actx.Keys()

	for _, key := range keys {
		rec := actx.Module(key)
		stem := strings.TrimSuffix(filepath.Base(rec.File), filepath.Ext(rec.File))
		if !strings.HasPrefix(stem, cfg.TestFilePrefix) {
			continue
		}
		summary.TestFileCount++

		var testFuncs []string
		for _, name := range rec.FunctionNames {
			if strings.HasPrefix(name, cfg.TestFunctionPrefix) {
				testFuncs = append(testFuncs, name)
			}
		}
		summary.TestFunctionCount += len(testFuncs)

		target := strings.TrimPrefix(stem, cfg.TestFilePrefix)
		if target == "" {
			continue
		}
		for _, candidate := range keys {
			if candidate == key {
				continue // a test file is not its own target
			}
			if strings.Contains(candidate, target) {
				summary.TestsByModule[candidate] = append(summary.TestsByModule[candidate], testFuncs...)
				break
			}
		}
	}

	summary.ModulesWithTests = len(summary.TestsByModule)
	summary.ModulesWithoutTest = actx.Len() - summary.ModulesWithTests

	logging.AnalyzeDebug("coverage: %d test files, %d test functions, %d modules covered",
		summary.TestFileCount, summary.TestFunctionCount, summary.ModulesWithTests)
	return summary
}
