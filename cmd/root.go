// Package cmd implements CLI commands using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configFile is the shared --config/-c flag read by both tier subcommands.
var configFile string

var rootCmd = &cobra.Command{
	Use:   "scrapeforge",
	Short: "scrapeforge - a two-tier web scraping orchestration service",
	Long: `scrapeforge runs a light-phase HTTP frontend and a heavy-phase
headless-browser backend as two independent tiers, connected over a
length-prefixed JSON wire protocol.

The frontend accepts scrape requests, fetches and parses pages, and
dispatches screenshot / performance / image-thumbnail jobs to the backend's
process pool. The backend never talks to clients directly.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (YAML); defaults are used when omitted")
}

// exitWithError prints an error message and exits with code 1, matching the
// spec's "1 on fatal startup failure" exit code contract.
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
