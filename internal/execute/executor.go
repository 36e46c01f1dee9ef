package execute

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"graft/internal/config"
	"graft/internal/logging"
)

// Phase names the three fixed executor phases.
type Phase string

const (
	PhaseInstallDependencies Phase = "install_dependencies"
	PhaseRunTests            Phase = "run_tests"
	PhaseBuildImage          Phase = "build_image"
)

// Outcome is the tagged result of one phase.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// PhaseResult records one phase's outcome. ExitCode is meaningful only for
// failed phases; a timed-out phase fails with exit code -1.
type PhaseResult struct {
	Phase    Phase   `json:"phase"`
	Outcome  Outcome `json:"outcome"`
	ExitCode int     `json:"exit_code,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// Report is the ordered record of one execution pass. It always contains
// exactly three phase results, in fixed order.
type Report struct {
	RunID      string        `json:"run_id"`
	Root       string        `json:"root"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Phases     []PhaseResult `json:"phases"`
}

// Succeeded reports whether every attempted phase succeeded. Skipped phases
// do not count against success; the judgment call stays with the caller.
func (r *Report) Succeeded() bool {
	for _, p := range r.Phases {
		if p.Outcome == OutcomeFailed {
			return false
		}
	}
	return true
}

// Executor runs the three phases strictly in order, each independently
// guarded by its prerequisite file. It never raises: an attempted phase
// records Succeeded or Failed and the next phase always gets its turn.
type Executor struct {
	cfg    *config.PhasesConfig
	runner Runner
}

// NewExecutor creates an executor using the given runner.
func NewExecutor(cfg *config.PhasesConfig, runner Runner) *Executor {
	return &Executor{cfg: cfg, runner: runner}
}

// Execute runs install -> tests -> build against the project root.
func (e *Executor) Execute(ctx context.Context, runID, root string) *Report {
	timer := logging.StartTimer(logging.CategoryExec, "Phase execution")
	defer timer.StopWithInfo()

	report := &Report{
		RunID:     runID,
		Root:      root,
		StartedAt: time.Now(),
	}

	phases := []struct {
		name Phase
		cmd  config.PhaseCommand
	}{
		{PhaseInstallDependencies, e.cfg.Install},
		{PhaseRunTests, e.cfg.Tests},
		{PhaseBuildImage, e.cfg.Build},
	}

	for _, p := range phases {
		report.Phases = append(report.Phases, e.runPhase(ctx, p.name, p.cmd, root))
	}

	report.FinishedAt = time.Now()
	logging.Exec("execution report: %d phases, success=%v", len(report.Phases), report.Succeeded())
	return report
}

func (e *Executor) runPhase(ctx context.Context, name Phase, cmd config.PhaseCommand, root string) PhaseResult {
	if cmd.Prerequisite != "" {
		if _, err := os.Stat(filepath.Join(root, cmd.Prerequisite)); err != nil {
			logging.Exec("phase %s skipped: prerequisite %s missing", name, cmd.Prerequisite)
			return PhaseResult{Phase: name, Outcome: OutcomeSkipped,
				Detail: "prerequisite " + cmd.Prerequisite + " not found"}
		}
	}

	result, err := e.runner.Run(ctx, cmd.Command, root)
	if err != nil {
		// The command could not be started at all. Still a phase failure,
		// never a raised error: the remaining phases must run.
		logging.ExecWarn("phase %s could not start: %v", name, err)
		return PhaseResult{Phase: name, Outcome: OutcomeFailed, ExitCode: -1, Detail: err.Error()}
	}

	if result.ExitCode != 0 {
		detail := ""
		if result.TimedOut {
			detail = "timed out"
		}
		return PhaseResult{Phase: name, Outcome: OutcomeFailed, ExitCode: result.ExitCode, Detail: detail}
	}
	return PhaseResult{Phase: name, Outcome: OutcomeSucceeded}
}
