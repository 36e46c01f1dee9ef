package analyze

import (
	"strings"

	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/scan"
)

// identifyIntegrationPoints flags candidate seams by name alone: classes
// whose name carries a service-ish hint, and detected endpoints whose
// function name looks like a callback or hook. Duplicates are permitted.
func identifyIntegrationPoints(actx *scan.AnalysisContext, endpoints []ApiEndpoint, cfg *config.AnalyzeConfig) []IntegrationPoint {
	var points []IntegrationPoint

	for _, key := range actx.Keys() {
		rec := actx.Module(key)
		for _, name := range rec.ClassNames {
			lower := strings.ToLower(name)
			for _, hint := range cfg.IntegrationClassHints {
				if strings.Contains(lower, hint) {
					points = append(points, IntegrationPoint{Module: key, Name: name, Kind: "class"})
					break
				}
			}
		}
	}

	for _, ep := range endpoints {
		lower := strings.ToLower(ep.Function)
		for _, hint := range cfg.HookFunctionHints {
			if strings.Contains(lower, hint) {
				points = append(points, IntegrationPoint{Module: ep.Module, Name: ep.Function, Kind: "hook"})
				break
			}
		}
	}

	logging.AnalyzeDebug("integration point identifier: %d candidates", len(points))
	return points
}
