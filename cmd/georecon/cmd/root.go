package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/georecon/internal/version"
)

var envFlag string

var rootCmd = &cobra.Command{
	Use:           "georecon",
	Short:         "georecon - reconciliation service for place names",
	Long:          "Matches free-text place names against a gazetteer and serves the reconciliation API.",
	Version:       version.String(),
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "config environment (default: $ENV or local)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(queryCmd)
}
