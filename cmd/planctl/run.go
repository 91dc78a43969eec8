package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuioss/plan-marshall/internal/dispatch"
	"github.com/cuioss/plan-marshall/internal/executor"
	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/timeoutstore"
)

var flagRunDefaultSecs int

var runCmd = &cobra.Command{
	Use:   "run <bundle:skill:script> <command> [args...]",
	Short: "Run a command through the Dispatcher and Command Executor",
	Long: `run parses a "<bundle>:<skill>:<script> <command> [args...]" invocation,
resolves its inner timeout from the Adaptive Timeout Store, runs it under
the Command Executor's two-layer deadline, folds the observed duration
back into run-configuration.json, and prints the rendered result.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagRunDefaultSecs, "default-timeout", 120, "default inner timeout in seconds, absent a learned value")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	planID := GetPlanID()
	if planID == "" {
		return fmt.Errorf("--plan-id is required")
	}

	line := args[0]
	for _, a := range args[1:] {
		line += " " + a
	}
	inv, err := dispatch.ParseInvocation(line)
	if err != nil {
		return err
	}

	store := newStore()
	runCfg, err := store.ReadRunConfig()
	if err != nil {
		return err
	}
	if runCfg.CommandTimings == nil {
		runCfg.CommandTimings = make(map[string]model.CommandTiming)
	}

	commandKey := inv.Notation.String()
	innerSeconds := timeoutstore.Get(runCfg.CommandTimings, commandKey, float64(flagRunDefaultSecs))

	ex := executor.New(map[string]executor.Parser{
		"go":   executor.GoParser{},
		"lint": executor.LintParser{},
	})
	router := dispatch.NewRouter(ex)

	env := dispatch.WithPlanBaseDir(os.Environ(), GetBaseDir())
	start := time.Now()
	result, err := router.Dispatch(context.Background(), inv, env, store.PlanDir(planID), innerSeconds)
	if err != nil {
		return err
	}
	observed := time.Since(start).Seconds()

	runCfg.CommandTimings[commandKey] = model.CommandTiming{
		TimeoutSeconds: timeoutstore.Set(runCfg.CommandTimings, commandKey, observed),
		LastExecution:  time.Now(),
	}
	if err := store.WriteRunConfig(runCfg); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Rendered)
	if result.Status != executor.StatusSuccess {
		return fmt.Errorf("command %s: %s", result.Status, commandKey)
	}
	return nil
}
