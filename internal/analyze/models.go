package analyze

import (
	"strings"

	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/scan"
)

// extractModels emits one DatabaseModel per class whose base list carries
// the literal base token or a base containing the model hint. Fields come
// from direct-body assignments to the column constructor.
func extractModels(actx *scan.AnalysisContext, cfg *config.AnalyzeConfig) []DatabaseModel {
	var models []DatabaseModel
	for _, key := range actx.Keys() {
		rec := actx.Module(key)
		for _, cl := range rec.Tree.Classes {
			if !isModelClass(cl.Bases, cfg) {
				continue
			}
			model := DatabaseModel{Module: key, ClassName: cl.Name}
			for _, a := range cl.Assigns {
				if a.CallName != cfg.ColumnConstructor {
					continue
				}
				declared := a.FirstArg
				if declared == "" {
					declared = "Unknown"
				}
				model.Fields = append(model.Fields, ModelField{
					Name:         a.Target,
					DeclaredType: declared,
				})
			}
			models = append(models, model)
		}
	}

	logging.AnalyzeDebug("model extractor: %d models", len(models))
	return models
}

func isModelClass(bases []string, cfg *config.AnalyzeConfig) bool {
	for _, base := range bases {
		if base == cfg.ModelBaseToken || strings.Contains(base, cfg.ModelBaseContains) {
			return true
		}
	}
	return false
}
