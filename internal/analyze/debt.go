package analyze

import (
	"strings"

	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/scan"
	"graft/internal/syntax"
)

// assessDebt applies both debt heuristics per module: the raw marker scan
// and the cyclomatic complexity threshold.
func assessDebt(actx *scan.AnalysisContext, cfg *config.AnalyzeConfig) []TechDebtItem {
	var items []TechDebtItem
	for _, key := range actx.Keys() {
		rec := actx.Module(key)
		items = append(items, scanMarkers(rec, cfg)...)
		items = append(items, scanComplexity(rec, cfg)...)
	}
	logging.AnalyzeDebug("debt assessor: %d items", len(items))
	return items
}

// scanMarkers is a textual scan over raw lines, 1-based. It is deliberately
// not comment-aware: a marker token inside a string literal still matches.
func scanMarkers(rec *scan.ModuleRecord, cfg *config.AnalyzeConfig) []TechDebtItem {
	var items []TechDebtItem
	for i, text := range rec.Lines {
		for _, token := range cfg.MarkerTokens {
			if strings.Contains(text, token) {
				items = append(items, TechDebtItem{
					Kind:   DebtMarker,
					Module: rec.Path,
					Line:   i + 1,
					Text:   strings.TrimSpace(text),
				})
				break
			}
		}
	}
	return items
}

func scanComplexity(rec *scan.ModuleRecord, cfg *config.AnalyzeConfig) []TechDebtItem {
	var items []TechDebtItem
	for _, fn := range rec.Tree.Functions {
		score := Complexity(&fn)
		if score > cfg.ComplexityThreshold {
			items = append(items, TechDebtItem{
				Kind:     DebtComplexity,
				Module:   rec.Path,
				Function: fn.Name,
				Score:    score,
			})
		}
	}
	return items
}

// Complexity computes cyclomatic complexity for one function: base 1, +1
// per branching construct anywhere in the body (nested scopes included),
// plus operands-1 per boolean AND chain.
func Complexity(fn *syntax.FuncDecl) int {
	score := 1
	syntax.Walk(fn.Body, func(s *syntax.Stmt) {
		switch s.Kind {
		case syntax.StmtIf, syntax.StmtWhile, syntax.StmtFor, syntax.StmtWith, syntax.StmtTry:
			score++
		}
		score += s.AndOps
	})
	return score
}
