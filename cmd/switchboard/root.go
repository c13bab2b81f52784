package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard - LLM request gateway",
	Long: `Switchboard is an LLM request gateway that routes completion requests
across a pool of heterogeneous backends.

It provides:
  - Load balancing with pluggable strategies
  - Per-backend request and token rate limits
  - Retry with failover to other backends
  - A response cache for identical requests
  - Streaming over Server-Sent Events
  - A per-attempt usage ledger, Prometheus metrics and OpenTelemetry traces`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
