package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	cliconfig "github.com/cuioss/plan-marshall/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved CLI configuration and where each value came from",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	resolved := cliconfig.Resolve(cliconfig.FlagOverrides{
		Output:  GetOutput(),
		BaseDir: GetBaseDir(),
	})

	if GetOutput() == "json" {
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-20v %s\n", "output", resolved.Output.Value, resolved.Output.Source)
	fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-20v %s\n", "base_dir", resolved.BaseDir.Value, resolved.BaseDir.Source)
	fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-20v %s\n", "verbose", resolved.Verbose.Value, resolved.Verbose.Source)
	return nil
}
