package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/providers"
)

const validConfig = `
backends:
  - id: mock-a
    family: mock
    supports_streaming: true
    requests_per_minute: 60
  - id: mock-b
    family: mock
    model: small
    cost_per_token: 0.000002
routing:
  strategy: round_robin
`

const invalidConfig = `
backends:
  - id: dup
    family: mock
  - id: dup
    family: mock
routing:
  strategy: round_robin
  max_attempts: -1
`

// writeConfig writes content to a temporary config file and points the
// --config flag at it for the duration of the test.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		format   string
		wantErr  bool
		contains []string
	}{
		{
			name:     "valid text",
			content:  validConfig,
			format:   "text",
			contains: []string{"Configuration valid", "Backends: 2", "Strategy: round_robin"},
		},
		{
			name:     "invalid text lists every error",
			content:  invalidConfig,
			format:   "text",
			wantErr:  true,
			contains: []string{"Configuration invalid", "duplicate backend ID", "routing.max_attempts"},
		},
		{
			name:     "valid json",
			content:  validConfig,
			format:   "json",
			contains: []string{`"valid": true`, `"backends": 2`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.content)
			validateFlags.format = tt.format

			cmd, buf := newTestCommand()
			err := validateConfig(cmd, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && cli.ExitCode(err) != cli.ExitConfig {
				t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestValidateConfigJSONErrors(t *testing.T) {
	writeConfig(t, invalidConfig)
	validateFlags.format = "json"
	defer func() { validateFlags.format = "text" }()

	cmd, buf := newTestCommand()
	if err := validateConfig(cmd, nil); err == nil {
		t.Fatal("expected error for invalid config")
	}

	var report validationReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if report.Valid {
		t.Error("report.Valid = true, want false")
	}
	if len(report.Errors) < 2 {
		t.Errorf("len(report.Errors) = %d, want at least 2", len(report.Errors))
	}
}

func TestValidateConfigMissingFile(t *testing.T) {
	orig := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { cfgFile = orig }()
	validateFlags.format = "text"

	cmd, _ := newTestCommand()
	err := validateConfig(cmd, nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitConfig)
	}
}

func TestListModels(t *testing.T) {
	writeConfig(t, validConfig)

	t.Run("text", func(t *testing.T) {
		modelsFlags.format = "text"
		cmd, buf := newTestCommand()
		if err := listModels(cmd, nil); err != nil {
			t.Fatalf("listModels() error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), buf.String())
		}
		if !strings.HasPrefix(lines[0], "ID") {
			t.Errorf("header = %q", lines[0])
		}
		// Model defaults to the backend ID.
		if !strings.Contains(lines[1], "mock-a") || !strings.Contains(lines[1], "60") {
			t.Errorf("row 1 = %q", lines[1])
		}
		if !strings.Contains(lines[2], "small") {
			t.Errorf("row 2 = %q", lines[2])
		}
	})

	t.Run("json", func(t *testing.T) {
		modelsFlags.format = "json"
		defer func() { modelsFlags.format = "text" }()
		cmd, buf := newTestCommand()
		if err := listModels(cmd, nil); err != nil {
			t.Fatalf("listModels() error = %v", err)
		}
		var backends []providers.BackendConfig
		if err := json.Unmarshal(buf.Bytes(), &backends); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(backends) != 2 {
			t.Fatalf("len(backends) = %d, want 2", len(backends))
		}
		if backends[0].Model != "mock-a" {
			t.Errorf("backends[0].Model = %q, want mock-a", backends[0].Model)
		}
		if len(backends[1].Capabilities) == 0 {
			t.Error("capabilities default not applied")
		}
	})

	t.Run("csv", func(t *testing.T) {
		modelsFlags.format = "csv"
		defer func() { modelsFlags.format = "text" }()
		cmd, buf := newTestCommand()
		if err := listModels(cmd, nil); err != nil {
			t.Fatalf("listModels() error = %v", err)
		}
		if !strings.HasPrefix(buf.String(), "ID,FAMILY,MODEL") {
			t.Errorf("csv header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
		}
	})
}

func TestLimit(t *testing.T) {
	if got := limit(0); got != "-" {
		t.Errorf("limit(0) = %q, want -", got)
	}
	if got := limit(120); got != "120" {
		t.Errorf("limit(120) = %q, want 120", got)
	}
}
