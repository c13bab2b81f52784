package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing/strategies"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string `json:"field"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All field errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateBackends(cfg.Backends)...)
	errs = append(errs, validateRouting(&cfg.Routing)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must not be negative"})
	}
	if cfg.MaxRequestBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_request_bytes", Message: "must not be negative"})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.request_timeout", Message: "must not be negative"})
	}

	return errs
}

// ValidateBackend checks a single backend definition. prefix is the dotted
// field path used in error messages.
func ValidateBackend(prefix string, b providers.BackendConfig) []FieldError {
	var errs []FieldError

	if b.ID == "" {
		errs = append(errs, FieldError{Field: prefix + ".id", Message: "is required"})
	}
	if !slices.Contains(providers.Families(), b.Family) {
		errs = append(errs, FieldError{
			Field:   prefix + ".family",
			Message: fmt.Sprintf("unknown family %q (valid: %v)", b.Family, providers.Families()),
		})
	}
	if b.Family == providers.FamilyAnthropic && b.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   prefix + ".api_key",
			Message: fmt.Sprintf("is required for anthropic (set SWITCHBOARD_BACKENDS_%s_API_KEY)", EnvName(b.ID)),
		})
	}
	if b.BaseURL != "" {
		if u, err := url.Parse(b.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{Field: prefix + ".base_url", Message: fmt.Sprintf("invalid URL %q", b.BaseURL)})
		}
	}

	valid := []providers.Capability{
		providers.CapabilityChat,
		providers.CapabilityCompletion,
		providers.CapabilityFunctionCalling,
		providers.CapabilityEmbeddings,
		providers.CapabilityStreaming,
	}
	for _, c := range b.Capabilities {
		if !slices.Contains(valid, c) {
			errs = append(errs, FieldError{Field: prefix + ".capabilities", Message: fmt.Sprintf("unknown capability %q", c)})
		}
	}
	if slices.Contains(b.Capabilities, providers.CapabilityStreaming) && !b.SupportsStreaming {
		errs = append(errs, FieldError{Field: prefix + ".capabilities", Message: "lists streaming but supports_streaming is false"})
	}
	if slices.Contains(b.Capabilities, providers.CapabilityFunctionCalling) && !b.SupportsFunctionCalling {
		errs = append(errs, FieldError{Field: prefix + ".capabilities", Message: "lists function_calling but supports_function_calling is false"})
	}

	checks := []struct {
		field string
		bad   bool
	}{
		{"max_tokens", b.MaxTokens < 0},
		{"cost_per_token", b.CostPerToken < 0},
		{"requests_per_minute", b.RequestsPerMinute < 0},
		{"tokens_per_minute", b.TokensPerMinute < 0},
		{"context_window", b.ContextWindow < 0},
		{"weight", b.Weight < 0},
		{"timeout", b.Timeout < 0},
		{"delay", b.Delay < 0},
	}
	for _, c := range checks {
		if c.bad {
			errs = append(errs, FieldError{Field: prefix + "." + c.field, Message: "must not be negative"})
		}
	}

	return errs
}

func validateBackends(backends []providers.BackendConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool)

	for i, b := range backends {
		prefix := fmt.Sprintf("backends[%d]", i)
		errs = append(errs, ValidateBackend(prefix, b)...)
		if b.ID != "" {
			if seen[b.ID] {
				errs = append(errs, FieldError{Field: prefix + ".id", Message: fmt.Sprintf("duplicate backend ID %q", b.ID)})
			}
			seen[b.ID] = true
		}
	}

	return errs
}

func validateRouting(cfg *RoutingConfig) []FieldError {
	var errs []FieldError

	if _, err := strategies.Parse(cfg.Strategy); err != nil {
		errs = append(errs, FieldError{Field: "routing.strategy", Message: err.Error()})
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{Field: "routing.max_attempts", Message: "must be at least 1"})
	}
	if cfg.MaxConcurrentRequests < 0 {
		errs = append(errs, FieldError{Field: "routing.max_concurrent_requests", Message: "must not be negative"})
	}
	if cfg.DefaultEstimateTokens < 0 {
		errs = append(errs, FieldError{Field: "routing.default_estimate_tokens", Message: "must not be negative"})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxSize < 1 {
		errs = append(errs, FieldError{Field: "cache.max_size", Message: "must be at least 1"})
	}
	if cfg.TTL < 0 {
		errs = append(errs, FieldError{Field: "cache.ttl", Message: "must not be negative"})
	}
	if cfg.CleanupInterval <= 0 {
		errs = append(errs, FieldError{Field: "cache.cleanup_interval", Message: "must be positive"})
	}

	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "usage.path", Message: "is required for the sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{Field: "usage.backend", Message: fmt.Sprintf("unknown backend %q (valid: memory, sqlite)", cfg.Backend)})
	}

	if cfg.Driver != "sqlite" && cfg.Driver != "sqlite3" {
		errs = append(errs, FieldError{Field: "usage.driver", Message: fmt.Sprintf("unknown driver %q (valid: sqlite, sqlite3)", cfg.Driver)})
	}
	if cfg.BufferSize < 1 {
		errs = append(errs, FieldError{Field: "usage.buffer_size", Message: "must be at least 1"})
	}
	if cfg.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "usage.max_records", Message: "must not be negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("must be one of %v", validLevels)})
	}

	validFormats := []string{"json", "text", "console"}
	if !slices.Contains(validFormats, strings.ToLower(cfg.Logging.Format)) {
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("must be one of %v", validFormats)})
	}

	switch cfg.Logging.Output {
	case "stdout", "stderr":
	case "file":
		if cfg.Logging.File.Path == "" {
			errs = append(errs, FieldError{Field: "telemetry.logging.file.path", Message: "is required for file output"})
		}
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.output", Message: "must be one of [stdout stderr file]"})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	validSamplers := []string{"always", "never", "ratio"}
	if !slices.Contains(validSamplers, cfg.Tracing.Sampler) {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: fmt.Sprintf("must be one of %v", validSamplers)})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "is required when tracing is enabled"})
	}

	if cfg.Health.CheckTimeout <= 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "must be positive"})
	}

	return errs
}
