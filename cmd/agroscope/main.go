// Package main provides the agroscope CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:   "agroscope",
		Short: "Potato sourcing cost optimizer",
		Long: `Agroscope drills down a potato cost table by business unit, season,
region and variety, finds the cheapest processing plant for the selected row
and explains the saving from relocating production there.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return gf.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&gf.configPath, "config", "", "Path to config file (default: search for .agroscope/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&gf.databaseURL, "database-url", "", "Postgres URL of the dataset registry (default: $DATABASE_URL)")

	rootCmd.AddCommand(
		newChoicesCmd(&gf),
		newAnalyzeCmd(&gf),
		newChartCmd(&gf),
		newExportCmd(&gf),
		newPushCmd(&gf),
		newServeCmd(&gf),
	)
	return rootCmd
}
