package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
)

var modelsFlags struct {
	format string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured backends",
	Long: `List every backend in the configuration file with its model,
capabilities, limits and pricing, after defaults are applied.

Examples:
  # Table output
  switchboard models

  # Machine-readable output
  switchboard models --format json
  switchboard models --format csv`,
	RunE: listModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVar(&modelsFlags.format, "format", "text", "output format: text, json, csv")
}

func listModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backends := make([]providers.BackendConfig, len(cfg.Backends))
	for i, b := range cfg.Backends {
		b = b.Clone()
		config.ApplyBackendDefaults(&b)
		b.APIKey = ""
		backends[i] = b
	}

	format := cli.OutputFormat(modelsFlags.format)
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), backends)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), modelsTable(backends))
}

func modelsTable(backends []providers.BackendConfig) *cli.Table {
	table := &cli.Table{
		Headers: []string{"ID", "FAMILY", "MODEL", "CAPABILITIES", "STREAMING", "MAX_TOKENS", "COST_PER_TOKEN", "RPM", "TPM", "WEIGHT", "PRIORITY"},
	}
	for _, b := range backends {
		caps := make([]string, len(b.Capabilities))
		for i, c := range b.Capabilities {
			caps[i] = string(c)
		}
		table.Rows = append(table.Rows, []string{
			b.ID,
			string(b.Family),
			b.Model,
			strings.Join(caps, ","),
			strconv.FormatBool(b.SupportsStreaming),
			strconv.Itoa(b.MaxTokens),
			strconv.FormatFloat(b.CostPerToken, 'g', -1, 64),
			limit(b.RequestsPerMinute),
			limit(b.TokensPerMinute),
			strconv.FormatFloat(b.Weight, 'g', -1, 64),
			strconv.Itoa(b.Priority),
		})
	}
	return table
}

func limit(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}
