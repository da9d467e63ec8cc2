package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"neurolint/internal/config"
	"neurolint/internal/hashutil"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Build and compare content-addressed project snapshots",
}

var baselineOutput string

var baselineSnapshotCmd = &cobra.Command{
	Use:   "snapshot [dir]",
	Short: "Build a baseline snapshot of a project tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.DefaultPath)
		if err != nil {
			return fmt.Errorf("neurolint: failed to load config: %w", err)
		}
		snap, err := hashutil.BuildSnapshot(args[0], cfg.Baseline.Exclusions)
		if err != nil {
			return fmt.Errorf("neurolint: failed to build snapshot: %w", err)
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		if baselineOutput == "" {
			fmt.Println(string(data))
			return nil
		}
		return os.WriteFile(baselineOutput, data, 0644)
	},
}

var baselineDiffCmd = &cobra.Command{
	Use:   "diff [old.json] [new.json]",
	Short: "Compare two baseline snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldSnap, err := readSnapshot(args[0])
		if err != nil {
			return err
		}
		newSnap, err := readSnapshot(args[1])
		if err != nil {
			return err
		}
		diff := hashutil.Diff(oldSnap, newSnap)
		data, err := json.MarshalIndent(diff, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func readSnapshot(path string) (hashutil.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("neurolint: failed to read snapshot %s: %w", path, err)
	}
	var snap hashutil.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("neurolint: failed to parse snapshot %s: %w", path, err)
	}
	return snap, nil
}

func init() {
	baselineSnapshotCmd.Flags().StringVarP(&baselineOutput, "output", "o", "", "Write snapshot JSON to a file instead of stdout")
	baselineCmd.AddCommand(baselineSnapshotCmd, baselineDiffCmd)
}
