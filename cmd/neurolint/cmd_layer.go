package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"neurolint/internal/adaptive"
	"neurolint/internal/config"
	"neurolint/internal/harden"
	"neurolint/internal/pipeline"
	"neurolint/internal/rulestore"
)

var (
	adaptiveDryRun bool
)

var adaptiveCmd = &cobra.Command{
	Use:   "adaptive [file]",
	Short: "Run only Layer 7 (adaptive pattern-learning) against a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		cfg, err := config.Load(config.DefaultPath)
		if err != nil {
			return fmt.Errorf("neurolint: failed to load config: %w", err)
		}
		store := rulestore.New(cfg.RuleStore.Path)
		if err := store.Load(); err != nil {
			return fmt.Errorf("neurolint: failed to load rule store: %w", err)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("neurolint: failed to read %s: %w", path, err)
		}

		layer := adaptive.New(store)
		result := layer.Transform(string(raw), pipeline.Options{
			DryRun:              adaptiveDryRun,
			Verbose:             verbose,
			ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold,
		}, path, nil)

		printLayerResult(path, result)
		if !adaptiveDryRun && result.ChangeCount > 0 {
			if err := os.WriteFile(path, []byte(result.Code), 0644); err != nil {
				return fmt.Errorf("neurolint: failed to write %s: %w", path, err)
			}
		}
		return nil
	},
}

var (
	hardenDryRun     bool
	hardenQuarantine bool
)

var hardenCmd = &cobra.Command{
	Use:   "harden [file]",
	Short: "Run only Layer 8 (server-action hardening) against a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("neurolint: failed to read %s: %w", path, err)
		}

		layer := harden.New()
		result := layer.Transform(string(raw), pipeline.Options{
			DryRun:     hardenDryRun,
			Verbose:    verbose,
			Quarantine: hardenQuarantine,
		}, path, nil)

		printLayerResult(path, result)
		for _, f := range result.SecurityFindings {
			fmt.Printf("  [%s] %s (line %d)\n", f.Severity, f.Description, f.Line)
		}
		if !hardenDryRun && result.ChangeCount > 0 {
			if err := os.WriteFile(path, []byte(result.Code), 0644); err != nil {
				return fmt.Errorf("neurolint: failed to write %s: %w", path, err)
			}
		}
		return nil
	},
}

func printLayerResult(path string, result pipeline.LayerResult) {
	if !result.Success {
		fmt.Printf("fail  %s: %s\n", path, result.Error)
		return
	}
	fmt.Printf("%-5s %s (%d changes)\n", statusLabel(pipeline.FileReport{TotalChanges: result.ChangeCount}), path, result.ChangeCount)
	for _, c := range result.Changes {
		fmt.Printf("  [%s] %s\n", c.Kind, c.Description)
	}
}

func init() {
	adaptiveCmd.Flags().BoolVar(&adaptiveDryRun, "dry-run", false, "Report changes without writing them")
	hardenCmd.Flags().BoolVar(&hardenDryRun, "dry-run", false, "Report changes without writing them")
	hardenCmd.Flags().BoolVar(&hardenQuarantine, "quarantine", false, "Enable AST-based neutralization rewrites")
}
