package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"neurolint/internal/adaptive"
	"neurolint/internal/backup"
	"neurolint/internal/config"
	"neurolint/internal/harden"
	"neurolint/internal/pipeline"
	"neurolint/internal/rulestore"
	"neurolint/internal/stdlayers"
)

var (
	runDryRun     bool
	runQuarantine bool
	runWatch      bool
	runConfidence float64
)

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Run the full transformation pipeline (layers 1-8) over a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]

		cfgPath := config.DefaultPath
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("neurolint: failed to load config: %w", err)
		}

		confidence := runConfidence
		if confidence == 0 {
			confidence = cfg.Pipeline.ConfidenceThreshold
		}
		quarantine := runQuarantine || cfg.Pipeline.QuarantineDefault

		store := rulestore.New(cfg.RuleStore.Path)
		if err := store.Load(); err != nil {
			return fmt.Errorf("neurolint: failed to load rule store: %w", err)
		}

		backups, err := backup.New(cfg.Backup.Root, cfg.Backup.Retention)
		if err != nil {
			return fmt.Errorf("neurolint: failed to initialize backup store: %w", err)
		}

		layers := []pipeline.Layer{
			stdlayers.TSConfigStrictLayer(),
			stdlayers.NewNoopLayer(2, "component-conversion"),
			stdlayers.NewNoopLayer(3, "hydration-safety"),
			stdlayers.NewNoopLayer(4, "client-directive"),
			stdlayers.NewNoopLayer(5, "nextjs-config"),
			stdlayers.NewNoopLayer(6, "testing-cleanup"),
			adaptive.New(store),
			harden.New(),
		}

		opts := pipeline.Options{
			DryRun:              runDryRun,
			Verbose:             verbose,
			Quarantine:          quarantine,
			ConfidenceThreshold: confidence,
		}

		p := pipeline.New(layers, backups, opts)
		report, err := p.Run(target)
		if err != nil {
			return fmt.Errorf("neurolint: %w", err)
		}

		printReport(report)

		if runWatch {
			w, err := pipeline.NewWatcher(p, target)
			if err != nil {
				return fmt.Errorf("neurolint: failed to start watcher: %w", err)
			}
			w.Start()
			fmt.Printf("watching %s for changes (ctrl-c to stop)\n", target)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			<-sigCh
			w.Stop()
			return nil
		}

		if report.Errors.ErrorCount > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func printReport(report *pipeline.Report) {
	for _, f := range report.Files {
		if f.Skipped {
			fmt.Printf("skip  %s (%s)\n", f.Path, f.SkipReason)
			continue
		}
		fmt.Printf("%-5s %s (%d changes)\n", statusLabel(f), f.Path, f.TotalChanges)
	}
	fmt.Printf("\n%d errors, %d warnings\n", report.Errors.ErrorCount, report.Errors.WarningCount)
}

func statusLabel(f pipeline.FileReport) string {
	if f.TotalChanges > 0 {
		return "fix"
	}
	return "ok"
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report changes without writing them")
	runCmd.Flags().BoolVar(&runQuarantine, "quarantine", false, "Enable Layer 8 server-action hardening rewrites")
	runCmd.Flags().Float64Var(&runConfidence, "confidence-threshold", 0, "Minimum rule confidence to apply (default from config)")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Re-run the pipeline whenever the target file changes on disk")
}
