package analyze

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/scan"
)

// Run executes all extractor passes over a sealed context and assembles the
// AnalysisResult. The context must be sealed: the passes share it without
// locking. Extractor mismatches are not errors; a node that fits no
// heuristic simply produces no record.
func Run(ctx context.Context, actx *scan.AnalysisContext, graph *scan.DependencyGraph, cfg *config.Config) (*Result, error) {
	if !actx.Sealed() {
		return nil, fmt.Errorf("analysis context must be sealed before extraction")
	}
	timer := logging.StartTimer(logging.CategoryAnalyze, "Feature extraction")
	defer timer.StopWithInfo()

	res := &Result{
		Context:  actx,
		Graph:    graph,
		Modules:  actx.Keys(),
		Failures: len(actx.Failures()),
	}

	// The passes are independent reads over the same sealed index.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Endpoints = detectEndpoints(actx, &cfg.Analyze)
		return nil
	})
	g.Go(func() error {
		res.Models = extractModels(actx, &cfg.Analyze)
		return nil
	})
	g.Go(func() error {
		res.Debt = assessDebt(actx, &cfg.Analyze)
		return nil
	})
	g.Go(func() error {
		res.Coverage = analyzeCoverage(actx, &cfg.Analyze)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Depends on the endpoint pass, so it runs after the group.
	res.IntegrationPoints = identifyIntegrationPoints(actx, res.Endpoints, &cfg.Analyze)

	logging.Analyze("analysis complete: %d endpoints, %d models, %d debt items, %d integration points",
		len(res.Endpoints), len(res.Models), len(res.Debt), len(res.IntegrationPoints))
	return res, nil
}
