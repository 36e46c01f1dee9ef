package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"graft/internal/logging"
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger
)

const version = "0.3.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "graft",
	Short: "graft - integration blueprint pipeline for Python codebases",
	Long: `graft inspects a Python source tree, derives a structural model of it
(modules, call surfaces, persisted-data shapes, risk hotspots, test
coverage), turns that model into an integration blueprint for adding a
new subsystem, scaffolds the blueprint into the tree, and runs a fixed
sequence of build/verify phases.

One run is one pass: scan -> plan -> scaffold -> execute.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the graft version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("graft %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
