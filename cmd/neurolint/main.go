// Package main implements the neurolint CLI entry point and command
// registration hub:
// this file owns the root command, global flags, and init(); individual
// command groups live in their own cmd_*.go files for maintainability.
//
// # File Index
//
//   - main.go        - entry point, rootCmd, global flags, init()
//   - cmd_run.go     - runCmd: drives the full Transformation Pipeline
//   - cmd_layer.go   - adaptiveCmd, hardenCmd: single-layer invocations
//   - cmd_rules.go   - rulesCmd and its list/delete/edit/reset/export/import subcommands
//   - cmd_baseline.go - baselineCmd: snapshot/diff subcommands
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"neurolint/internal/logging"
)

var (
	// Global flags
	verbose   bool
	workspace string

	// Top-level zap logger for CLI-facing structured output, distinct
	// from the file-backed category logger in internal/logging.
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "neurolint",
	Short: "neurolint - deterministic layered code-transformation engine",
	Long: `neurolint applies an ordered pipeline of layers to JavaScript/TypeScript/
JSX/TSX source, correcting configuration drift, missing JSX key props,
unsafe SSR/hydration access, missing client directives, and
security-sensitive patterns in server actions, while learning new
transformation rules it can reapply on future runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
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

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")

	rootCmd.AddCommand(
		runCmd,
		adaptiveCmd,
		hardenCmd,
		rulesCmd,
		baselineCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
