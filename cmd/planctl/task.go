package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cuioss/plan-marshall/internal/executor"
	"github.com/cuioss/plan-marshall/internal/logging"
	"github.com/cuioss/plan-marshall/internal/model"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and update tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every task, in task-number order",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <number>",
	Short: "Show a single task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskSetStatusCmd = &cobra.Command{
	Use:   "set-status <number> <status>",
	Short: "Update a task's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskSetStatus,
}

var flagCompleteManual bool
var flagCompleteTimeoutSecs int

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <number>",
	Short: "Run a task's verification command(s) and mark it done on exit 0",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskComplete,
}

func init() {
	taskCompleteCmd.Flags().BoolVar(&flagCompleteManual, "manual", false, "attest a manual verification task as done without running the Command Executor")
	taskCompleteCmd.Flags().IntVar(&flagCompleteTimeoutSecs, "timeout", 120, "timeout in seconds for each verification command")
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskListCmd, taskShowCmd, taskSetStatusCmd, taskCompleteCmd)
}

func runTaskList(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	store := newStore()
	tasks, err := store.ListTasks(planID)
	if err != nil {
		return err
	}
	if GetOutput() == "json" {
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintf(cmd.OutOrStdout(), "%03d  %-10s %-5s %-12s %s\n", t.Number, t.Status, t.Type, t.Profile, t.Title)
	}
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid task number: %s", args[0])
	}
	store := newStore()
	task, err := store.ReadTask(planID, number)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid task number: %s", args[0])
	}
	store := newStore()
	task, err := store.ReadTask(planID, number)
	if err != nil {
		return err
	}

	if flagCompleteManual {
		if !task.Verification.Manual {
			return fmt.Errorf("task %03d is not a manual-verification task", number)
		}
		pipeline := logging.New(store.LogSink(), planID)
		pipeline.Decision.Info("manual task completion attested",
			zap.Int("task", number),
			zap.String("title", task.Title),
			zap.String(logging.Category, string(model.CategoryPhase)),
		)
		task.Status = model.TaskDone
		return store.UpdateTask(planID, task)
	}

	commands := task.Verification.Commands
	if len(commands) == 0 && task.Verification.Command != "" {
		commands = []string{task.Verification.Command}
	}
	if len(commands) == 0 {
		return fmt.Errorf("task %03d has no verification command configured; use --manual if this is attested by a human", number)
	}

	ex := executor.New(map[string]executor.Parser{
		"go":   executor.GoParser{},
		"lint": executor.LintParser{},
	})
	for _, c := range commands {
		result, err := ex.Run(context.Background(), executor.Request{
			Command:        "sh",
			Args:           []string{"-c", c},
			TimeoutSeconds: flagCompleteTimeoutSecs,
			Mode:           executor.ModeErrors,
			LogDir:         store.PlanDir(planID),
		})
		if err != nil {
			return err
		}
		if result.Status != executor.StatusSuccess {
			return fmt.Errorf("task %03d verification command %q did not exit 0: %s", number, c, result.Rendered)
		}
	}

	task.VerificationPassed = true
	task.Status = model.TaskDone
	return store.UpdateTask(planID, task)
}

func runTaskSetStatus(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid task number: %s", args[0])
	}
	status := model.TaskStatus(args[1])
	if !status.IsValid() {
		return fmt.Errorf("invalid task status %q", args[1])
	}
	store := newStore()
	task, err := store.ReadTask(planID, number)
	if err != nil {
		return err
	}
	task.Status = status
	return store.UpdateTask(planID, task)
}
