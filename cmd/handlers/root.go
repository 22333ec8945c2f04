// Package handlers contains the cobra command handlers for the currents CLI.
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"currents/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command for the currents CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "currents",
		Short: "Ingest, extract, and enrich current-affairs news articles",
		Long: `Currents - Current Affairs Enrichment Pipeline

A batch pipeline that fetches news articles from configured sources,
extracts full article text, scores and selects the most exam-relevant
items, generates study knowledge cards, and persists them locally.

Examples:
  # Run the full pipeline and persist results
  currents run

  # Dry run without persistence, capped at 10 articles
  currents run --max-articles 10 --no-persist

  # Show today's repository statistics
  currents stats`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .currents.yaml)")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewStatsCmd())

	cobra.OnInitialize(initConfig)

	return rootCmd
}

// initConfig reads in config file and ENV variables
func initConfig() {
	_, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		// Don't exit - allow running with just environment variables
	}
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
