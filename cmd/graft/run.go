package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graft/internal/config"
	"graft/internal/execute"
	"graft/internal/logging"
	"graft/internal/pipeline"
	"graft/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [project-root]",
	Short: "Run one full pipeline pass over a project tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args)
		if err != nil {
			return err
		}

		cfg, hist, err := setup(root)
		if err != nil {
			return err
		}
		if hist != nil {
			defer hist.Close()
		}

		p, err := newPipeline(cfg, hist)
		if err != nil {
			return err
		}

		s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
		s.Suffix = " Running pipeline..."
		s.Start()

		report, err := p.Run(cmd.Context(), root)
		s.Stop()
		if err != nil {
			return err
		}

		printReport(report)
		if !report.Succeeded() {
			return fmt.Errorf("pipeline completed with failed phases")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [project-root]",
	Short: "List recorded pipeline runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args)
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		if !cfg.Store.Enabled {
			return fmt.Errorf("run history store is disabled; enable store.enabled in .graft/config.yaml")
		}

		hist, err := store.Open(filepath.Join(root, cfg.Store.Path))
		if err != nil {
			return err
		}
		defer hist.Close()

		runs, err := hist.ListRuns(20)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  modules=%d endpoints=%d models=%d debt=%d  install=%s tests=%s build=%s\n",
				r.StartedAt.Format(time.RFC3339), r.ID,
				r.Modules, r.Endpoints, r.Models, r.DebtItems,
				r.InstallOutcome, r.TestsOutcome, r.BuildOutcome)
		}
		return nil
	},
}

func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	return abs, nil
}

// setup loads config, initializes file logging and opens the optional
// history store.
func setup(root string) (*config.Config, *store.RunStore, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}

	logOpts := logging.Options{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}
	if verbose {
		logOpts.Level = "debug"
	}
	if err := logging.Initialize(root, logOpts); err != nil {
		return nil, nil, err
	}

	var hist *store.RunStore
	if cfg.Store.Enabled {
		hist, err = store.Open(filepath.Join(root, cfg.Store.Path))
		if err != nil {
			logger.Warn("run history store unavailable", zap.Error(err))
			hist = nil
		}
	}
	return cfg, hist, nil
}

func newPipeline(cfg *config.Config, hist *store.RunStore) (*pipeline.Pipeline, error) {
	var opts []pipeline.Option
	if hist != nil {
		opts = append(opts, pipeline.WithHistory(hist))
	}
	return pipeline.New(cfg, opts...)
}

func printReport(report *execute.Report) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	cyan.Printf("Pipeline run %s\n", report.RunID)
	for _, ph := range report.Phases {
		switch ph.Outcome {
		case execute.OutcomeSucceeded:
			green.Printf("  %-22s %s\n", ph.Phase, ph.Outcome)
		case execute.OutcomeSkipped:
			yellow.Printf("  %-22s %s (%s)\n", ph.Phase, ph.Outcome, ph.Detail)
		default:
			red.Printf("  %-22s %s (exit %d)\n", ph.Phase, ph.Outcome, ph.ExitCode)
		}
	}
	fmt.Printf("\nArtifacts (if enabled) are under %s\n",
		filepath.Join(report.Root, ".graft", "artifacts"))
}
