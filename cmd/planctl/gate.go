package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuioss/plan-marshall/internal/model"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Inspect and resolve Q-Gate findings",
}

var gateListCmd = &cobra.Command{
	Use:   "list <phase>",
	Short: "List findings recorded for a phase",
	Args:  cobra.ExactArgs(1),
	RunE:  runGateList,
}

var gateResolveCmd = &cobra.Command{
	Use:   "resolve <phase> <hash-id> <resolution>",
	Short: "Resolve a pending finding (taken_into_account, dismissed, deferred)",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runGateResolve,
}

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.AddCommand(gateListCmd, gateResolveCmd)
}

func runGateList(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	phase := model.PhaseName(args[0])
	store := newStore()
	findings, err := store.ListFindings(planID, phase)
	if err != nil {
		return err
	}
	if GetOutput() == "json" {
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %-10s %s\n", f.HashID, f.Severity, f.Resolution, f.Title)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pending: %d\n", model.PendingCount(findings))
	return nil
}

func runGateResolve(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	phase := model.PhaseName(args[0])
	hashID := args[1]
	resolution := model.FindingResolution(args[2])
	if !resolution.IsValid() {
		return fmt.Errorf("invalid resolution: %s", resolution)
	}
	detail := ""
	if len(args) == 4 {
		detail = args[3]
	}
	store := newStore()
	return store.ResolveFinding(planID, phase, hashID, resolution, detail, time.Now())
}
