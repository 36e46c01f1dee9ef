package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graft/internal/config"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [project-root]",
	Short: "Re-run the pipeline whenever source files change",
	Long: `watch monitors the project tree and triggers a fresh pipeline run on
every burst of source changes. There is no incremental re-entry: each
run starts from scanning, exactly like a manual run.`,
	Args: cobra.MaximumNArgs(1),
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

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()

		if err := addWatchDirs(watcher, root, cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("watching %s (Ctrl-C to stop)\n", root)

		// Debounce timer: a burst of events collapses into one run.
		var timer *time.Timer
		runs := make(chan struct{}, 1)
		trigger := func() {
			select {
			case runs <- struct{}{}:
			default:
			}
		}

		for {
			select {
			case <-ctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !watchRelevant(event, cfg) {
					continue
				}
				logger.Debug("change detected", zap.String("file", event.Name))
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, trigger)

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watcher error", zap.Error(err))

			case <-runs:
				report, runErr := p.Run(ctx, root)
				if runErr != nil {
					logger.Error("pipeline run failed", zap.Error(runErr))
					continue
				}
				printReport(report)
			}
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 750*time.Millisecond,
		"quiet period before a change burst triggers a run")
}

// addWatchDirs registers every non-skipped directory under root.
func addWatchDirs(w *fsnotify.Watcher, root string, cfg *config.Config) error {
	skip := make(map[string]bool, len(cfg.Scan.SkipDirs))
	for _, d := range cfg.Scan.SkipDirs {
		skip[d] = true
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && (skip[name] || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// watchRelevant filters events down to source-file writes and renames.
func watchRelevant(event fsnotify.Event, cfg *config.Config) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, want := range cfg.Scan.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}
