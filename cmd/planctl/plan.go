package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuioss/plan-marshall/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage plan lifecycle",
}

var planInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new plan and its on-disk layout",
	RunE:  runPlanInit,
}

var planStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a plan's phase state",
	RunE:  runPlanStatus,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known plan id",
	RunE:  runPlanList,
}

var flagPruneOlderThan time.Duration

var planPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove done/failed plans older than --older-than",
	RunE:  runPlanPrune,
}

func init() {
	planPruneCmd.Flags().DurationVar(&flagPruneOlderThan, "older-than", 30*24*time.Hour, "retention window for terminal plans")
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planInitCmd, planStatusCmd, planListCmd, planPruneCmd)
}

func runPlanInit(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		planID = "plan-" + uuid.NewString()[:8]
	}
	store := newStore()
	plan, err := store.CreatePlan(planID, time.Now())
	if err != nil {
		return err
	}
	return printPlan(cmd, plan)
}

func runPlanStatus(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	store := newStore()
	plan, err := store.ReadStatus(planID)
	if err != nil {
		return err
	}
	return printPlan(cmd, plan)
}

func runPlanList(cmd *cobra.Command, args []string) error {
	store := newStore()
	plans, err := store.ListPlans()
	if err != nil {
		return err
	}
	if GetOutput() == "json" {
		data, err := json.MarshalIndent(plans, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	for _, id := range plans {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runPlanPrune(cmd *cobra.Command, args []string) error {
	store := newStore()
	removed, err := store.PrunePlans(time.Now().Add(-flagPruneOlderThan))
	if err != nil {
		return err
	}
	for _, id := range removed {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func printPlan(cmd *cobra.Command, plan *model.Plan) error {
	if GetOutput() == "json" {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "plan:          %s\n", plan.PlanID)
	fmt.Fprintf(cmd.OutOrStdout(), "current phase: %s\n", plan.CurrentPhase)
	for _, ps := range plan.Phases {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %-12s reentries=%d\n", ps.Name, ps.Status, ps.ReentryCount)
	}
	return nil
}
