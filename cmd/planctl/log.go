package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <stream>",
	Short: "Print a plan's logging pipeline stream (script, work, decision)",
	Args:  cobra.ExactArgs(1),
	RunE:  runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	stream := args[0]
	switch stream {
	case "script", "work", "decision":
	default:
		return fmt.Errorf("unknown stream %q (want script, work, or decision)", stream)
	}

	store := newStore()
	contents, err := store.ReadLog(planID, stream)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), contents)
	return nil
}
