package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuioss/plan-marshall/internal/artifactstore"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

var (
	flagPlanID      string
	flagTracePlanID string
	flagBaseDir     string
	flagOutput      string
)

// rootCmd is the base command when planctl is invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "Drive a plan-marshall plan through its seven-phase lifecycle",
	Long: `planctl is the CLI for plan-marshall, a structured-work orchestration
engine that carries an LLM-driven change through init, refine, outline,
plan, execute, verify, and finalize phases, backed by a file-based
Artifact Store and a bounded Q-Gate self-correction loop.

Core Commands:
  plan    Manage plan lifecycle (init, status, list, prune)
  gate    Inspect and resolve Q-Gate findings
  task    Inspect and update tasks
  run     Run a command through the Dispatcher/Command Executor
  config  Show resolved CLI configuration
  log     Inspect the logging pipeline's streams`,
	SilenceUsage: true,
}

// Execute runs the root command, mapping a classified error's Kind to the
// process exit code contract.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(planerrors.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPlanID, "plan-id", "", "target plan identifier")
	rootCmd.PersistentFlags().StringVar(&flagTracePlanID, "trace-plan-id", "", "plan identifier to trace diagnostics for, if different from --plan-id")
	rootCmd.PersistentFlags().StringVar(&flagBaseDir, "base-dir", artifactstore.DefaultBaseDir, "Artifact Store base directory")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "output format (table, json)")
}

// GetPlanID returns the --plan-id flag value for use by subcommands.
func GetPlanID() string { return flagPlanID }

// GetTracePlanID returns --trace-plan-id, falling back to --plan-id when unset.
func GetTracePlanID() string {
	if flagTracePlanID != "" {
		return flagTracePlanID
	}
	return flagPlanID
}

// GetBaseDir returns the --base-dir flag value for use by subcommands.
func GetBaseDir() string { return flagBaseDir }

// GetOutput returns the --output flag value for use by subcommands.
func GetOutput() string { return flagOutput }

// newStore constructs an artifactstore.Store rooted at the resolved
// --base-dir, wiring WarnSink to stderr so best-effort warnings reach the
// terminal rather than failing a command.
func newStore() *artifactstore.Store {
	store := artifactstore.NewStore(artifactstore.WithBaseDir(GetBaseDir()))
	store.WarnSink = func(message string) {
		fmt.Fprintln(os.Stderr, "warn:", message)
	}
	return store
}
