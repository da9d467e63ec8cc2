package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neurolint/internal/config"
	"neurolint/internal/rule"
	"neurolint/internal/rulestore"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and manage the learned Rule Store",
}

func openStore() (*rulestore.Store, error) {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		return nil, fmt.Errorf("neurolint: failed to load config: %w", err)
	}
	store := rulestore.New(cfg.RuleStore.Path)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("neurolint: failed to load rule store: %w", err)
	}
	return store, nil
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every persisted rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		for _, r := range store.All() {
			fmt.Printf("%s  [%s]  conf=%.2f  freq=%d  %s\n", r.ID, r.Category, r.Confidence, r.Frequency, r.Description)
		}
		return nil
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a rule by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Delete(args[0])
	},
}

var rulesEditConfidence float64

var rulesEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a rule's confidence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Edit(args[0], func(r *rule.Rule) {
			if rulesEditConfidence > 0 {
				r.Confidence = rulesEditConfidence
			}
		})
	},
}

var rulesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every persisted rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Reset()
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the rule set to an arbitrary path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Export(args[0])
	},
}

var rulesImportCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Replace the rule set with the contents of path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Import(args[0])
	},
}

func init() {
	rulesEditCmd.Flags().Float64Var(&rulesEditConfidence, "confidence", 0, "New confidence value")
	rulesCmd.AddCommand(
		rulesListCmd,
		rulesDeleteCmd,
		rulesEditCmd,
		rulesResetCmd,
		rulesExportCmd,
		rulesImportCmd,
	)
}
