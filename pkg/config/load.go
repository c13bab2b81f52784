package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SWITCHBOARD_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Values missing from the file keep their defaults. The result is
// validated. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow SWITCHBOARD_SECTION_FIELD
// (e.g. SWITCHBOARD_SERVER_LISTEN_ADDRESS) and always win over the file.
//
// The loading sequence is:
// 1. Load .env files next to the config and in the working directory
// 2. Load YAML from file over the defaults
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	if err := LoadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads each existing file into the process environment.
// Variables that are already set are not overwritten, and missing files
// are skipped.
func LoadDotEnv(paths ...string) error {
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true

		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("failed to load env file %q: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	// Server
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Routing
	envString("ROUTING_STRATEGY", &cfg.Routing.Strategy)
	envInt("ROUTING_MAX_ATTEMPTS", &cfg.Routing.MaxAttempts)
	envBool("ROUTING_FAILOVER", &cfg.Routing.Failover)
	envInt("ROUTING_MAX_CONCURRENT_REQUESTS", &cfg.Routing.MaxConcurrentRequests)
	envInt("ROUTING_DEFAULT_ESTIMATE_TOKENS", &cfg.Routing.DefaultEstimateTokens)

	// Cache
	envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	envInt("CACHE_MAX_SIZE", &cfg.Cache.MaxSize)
	envDuration("CACHE_TTL", &cfg.Cache.TTL)
	envDuration("CACHE_CLEANUP_INTERVAL", &cfg.Cache.CleanupInterval)

	// Usage
	envBool("USAGE_ENABLED", &cfg.Usage.Enabled)
	envString("USAGE_BACKEND", &cfg.Usage.Backend)
	envString("USAGE_DRIVER", &cfg.Usage.Driver)
	envString("USAGE_PATH", &cfg.Usage.Path)

	// Telemetry
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envString("TELEMETRY_LOGGING_OUTPUT", &cfg.Telemetry.Logging.Output)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Backends: SWITCHBOARD_BACKENDS_<ID>_API_KEY and _BASE_URL
	for i := range cfg.Backends {
		prefix := "BACKENDS_" + EnvName(cfg.Backends[i].ID) + "_"
		envString(prefix+"API_KEY", &cfg.Backends[i].APIKey)
		envString(prefix+"BASE_URL", &cfg.Backends[i].BaseURL)
		envString(prefix+"MODEL", &cfg.Backends[i].Model)
	}
}

// EnvName converts a backend ID into its environment variable segment:
// upper case with every non-alphanumeric rune replaced by '_'.
func EnvName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, id)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
