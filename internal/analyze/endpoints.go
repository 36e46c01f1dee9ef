package analyze

import (
	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/scan"
)

// detectEndpoints emits one ApiEndpoint per function carrying at least one
// decorator from the verb vocabulary. Unrelated decorators never match.
func detectEndpoints(actx *scan.AnalysisContext, cfg *config.AnalyzeConfig) []ApiEndpoint {
	verbs := make(map[string]bool, len(cfg.EndpointDecorators))
	for _, v := range cfg.EndpointDecorators {
		verbs[v] = true
	}

	var endpoints []ApiEndpoint
	for _, key := range actx.Keys() {
		rec := actx.Module(key)
		for _, fn := range rec.Tree.Functions {
			var methods []string
			seen := make(map[string]bool)
			for _, dec := range fn.Decorators {
				if verbs[dec] && !seen[dec] {
					methods = append(methods, dec)
					seen[dec] = true
				}
			}
			if len(methods) == 0 {
				continue
			}
			endpoints = append(endpoints, ApiEndpoint{
				Module:   key,
				Function: fn.Name,
				Methods:  methods,
			})
		}
	}

	logging.AnalyzeDebug("endpoint detector: %d endpoints", len(endpoints))
	return endpoints
}
