package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "quantpipe",
	Short: "Signal ranking pipeline for daily equity data",
	Long: `quantpipe collects daily prices, computes technical indicators and
ranks momentum and reversal signals.

Usage:
  go run ./cmd/quantpipe [command]

Examples:
  go run ./cmd/quantpipe collect
  go run ./cmd/quantpipe run
  go run ./cmd/quantpipe api
  go run ./cmd/quantpipe schedule`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
