package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
)

var validateFlags struct {
	format string
}

// validationReport is the JSON form of the validate command's output.
type validationReport struct {
	Valid    bool                `json:"valid"`
	Path     string              `json:"path"`
	Backends int                 `json:"backends,omitempty"`
	Strategy string              `json:"strategy,omitempty"`
	Errors   []config.FieldError `json:"errors,omitempty"`
	Message  string              `json:"message,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the gateway.

Every validation problem is reported, not just the first one. The command
exits with status 2 when the configuration is invalid.

Examples:
  # Validate the default config
  switchboard validate

  # Validate a specific file and print a JSON report
  switchboard validate --config prod.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	report := validationReport{Path: cfgFile}

	cfg, loadErr := config.LoadConfigWithEnvOverrides(cfgFile)
	if loadErr != nil {
		var verr config.ValidationError
		if errors.As(loadErr, &verr) {
			report.Errors = verr.Errors
		} else {
			report.Message = loadErr.Error()
		}
	} else {
		report.Valid = true
		report.Backends = len(cfg.Backends)
		report.Strategy = cfg.Routing.Strategy
	}

	out := cmd.OutOrStdout()
	if cli.OutputFormat(validateFlags.format) == cli.FormatJSON {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(out, report); err != nil {
			return err
		}
	} else {
		switch {
		case report.Valid:
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", report.Path)
			fmt.Fprintf(out, "  Backends: %d\n", report.Backends)
			fmt.Fprintf(out, "  Strategy: %s\n", report.Strategy)
		case len(report.Errors) > 0:
			fmt.Fprintf(out, "✗ Configuration invalid: %s\n", report.Path)
			for _, fe := range report.Errors {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
		default:
			fmt.Fprintf(out, "✗ Configuration invalid: %s\n", report.Message)
		}
	}

	if loadErr != nil {
		return cli.WrapConfigError(loadErr)
	}
	return nil
}
