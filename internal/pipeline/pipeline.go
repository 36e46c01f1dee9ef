// Package pipeline sequences one non-interactive run:
// Scanning -> Planning -> Scaffolding -> Executing -> Done. Strictly
// sequential, no branching back, no retry; a fresh run always starts from
// Scanning.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"graft/internal/analyze"
	"graft/internal/config"
	"graft/internal/execute"
	"graft/internal/logging"
	"graft/internal/plan"
	"graft/internal/scaffold"
	"graft/internal/scan"
	"graft/internal/store"
)

// State is the orchestrator's current phase.
type State string

const (
	StateScanning    State = "scanning"
	StatePlanning    State = "planning"
	StateScaffolding State = "scaffolding"
	StateExecuting   State = "executing"
	StateDone        State = "done"
)

// ErrRootUnreadable is the fatal precondition failure: it aborts before any
// phase runs and is the only error RunPipeline surfaces. Every other
// failure mode degrades gracefully into the returned artifacts.
type ErrRootUnreadable struct {
	Root string
	Err  error
}

func (e *ErrRootUnreadable) Error() string {
	return fmt.Sprintf("project root %s is not readable: %v", e.Root, e.Err)
}

func (e *ErrRootUnreadable) Unwrap() error { return e.Err }

// Pipeline owns the collaborators of one run. Zero-value collaborators are
// filled in from config by New.
type Pipeline struct {
	cfg      *config.Config
	scanner  *scan.Scanner
	renderer scaffold.Renderer
	runner   execute.Runner
	history  *store.RunStore

	state State
}

// Option customizes a Pipeline, mainly for tests.
type Option func(*Pipeline)

// WithRunner replaces the host command runner.
func WithRunner(r execute.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithRenderer replaces the template renderer.
func WithRenderer(r scaffold.Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithHistory attaches a run-history store.
func WithHistory(s *store.RunStore) Option {
	return func(p *Pipeline) { p.history = s }
}

// New assembles a pipeline from configuration.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:     cfg,
		scanner: scan.NewScanner(cfg),
		state:   StateScanning,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.renderer == nil {
		renderer, err := scaffold.NewTemplateRenderer(cfg.Scaffold.TemplateDir)
		if err != nil {
			return nil, err
		}
		p.renderer = renderer
	}
	if p.runner == nil {
		p.runner = execute.NewHostRunner(cfg.Phases.Timeout, cfg.Phases.MaxOutputBytes)
	}
	return p, nil
}

// State returns the orchestrator's current state.
func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) transition(next State) {
	logging.Pipeline("state: %s -> %s", p.state, next)
	p.state = next
}

// Run executes one full pipeline pass over projectRoot and returns the
// execution report. The only returned error is the fatal precondition.
func (p *Pipeline) Run(ctx context.Context, projectRoot string) (*execute.Report, error) {
	runID := uuid.NewString()
	started := time.Now()
	logging.Pipeline("run %s starting at %s", runID, projectRoot)

	info, err := os.Stat(projectRoot)
	if err != nil {
		return nil, &ErrRootUnreadable{Root: projectRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &ErrRootUnreadable{Root: projectRoot, Err: fmt.Errorf("not a directory")}
	}

	// Scanning: module index, dependency graph, feature extraction.
	p.state = StateScanning
	actx, err := p.scanner.Scan(ctx, projectRoot)
	if err != nil {
		return nil, &ErrRootUnreadable{Root: projectRoot, Err: err}
	}
	graph := scan.BuildGraph(actx)
	result, err := analyze.Run(ctx, actx, graph, p.cfg)
	if err != nil {
		return nil, &ErrRootUnreadable{Root: projectRoot, Err: err}
	}

	// Planning.
	p.transition(StatePlanning)
	blueprint := plan.Build(result)
	p.writeArtifact(projectRoot, "analysis.json", result)
	p.writeArtifact(projectRoot, "plan.json", blueprint)

	// Scaffolding. Failures here are logged and do not stop execution.
	p.transition(StateScaffolding)
	scaffolder := scaffold.NewScaffolder(projectRoot, &p.cfg.Scaffold, p.renderer)
	if err := scaffolder.Apply(blueprint); err != nil {
		logging.PipelineWarn("scaffolding incomplete: %v", err)
	}

	// Executing.
	p.transition(StateExecuting)
	executor := execute.NewExecutor(&p.cfg.Phases, p.runner)
	report := executor.Execute(ctx, runID, projectRoot)

	p.transition(StateDone)
	p.writeArtifact(projectRoot, "report.json", report)
	p.record(runID, projectRoot, started, result, report)

	logging.Pipeline("run %s done in %s", runID, time.Since(started))
	return report, nil
}

func (p *Pipeline) record(runID, root string, started time.Time, result *analyze.Result, report *execute.Report) {
	if p.history == nil {
		return
	}
	rec := store.RunRecord{
		ID:            runID,
		Root:          root,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		Modules:       len(result.Modules),
		ParseFailures: result.Failures,
		Endpoints:     len(result.Endpoints),
		Models:        len(result.Models),
		DebtItems:     len(result.Debt),
		TestFiles:     result.Coverage.TestFileCount,
	}
	for _, ph := range report.Phases {
		switch ph.Phase {
		case execute.PhaseInstallDependencies:
			rec.InstallOutcome, rec.InstallExit = string(ph.Outcome), ph.ExitCode
		case execute.PhaseRunTests:
			rec.TestsOutcome, rec.TestsExit = string(ph.Outcome), ph.ExitCode
		case execute.PhaseBuildImage:
			rec.BuildOutcome, rec.BuildExit = string(ph.Outcome), ph.ExitCode
		}
	}
	if err := p.history.RecordRun(rec); err != nil {
		logging.PipelineWarn("run history not recorded: %v", err)
	}
}
