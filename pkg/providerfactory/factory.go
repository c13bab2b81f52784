package providerfactory

import (
	"fmt"
	"log/slog"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/providers/anthropic"
	"mercator-hq/switchboard/pkg/providers/mock"
	"mercator-hq/switchboard/pkg/providers/openai"
)

// New creates the adapter for config, selected by config.Family.
//
// Supported families:
//   - "openai": OpenAI-compatible chat completions (also Ollama, vLLM, LM Studio)
//   - "anthropic": Anthropic Messages API
//   - "mock": deterministic in-process backend
//
// Example:
//
//	p, err := providerfactory.New(providers.BackendConfig{
//	    ID:     "local",
//	    Family: providers.FamilyMock,
//	    Model:  "mock-1",
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
func New(config providers.BackendConfig, opts ...providers.BaseOption) (providers.Provider, error) {
	if config.ID == "" {
		return nil, &providers.ConfigError{Field: "id", Message: "backend id is required"}
	}

	slog.Debug("creating backend",
		"backend", config.ID,
		"family", config.Family,
		"model", config.Model,
	)

	var (
		provider providers.Provider
		err      error
	)

	switch config.Family {
	case providers.FamilyOpenAI:
		provider, err = openai.NewProvider(config, opts...)
	case providers.FamilyAnthropic:
		provider, err = anthropic.NewProvider(config, opts...)
	case providers.FamilyMock:
		provider = mock.New(config, opts...)
	default:
		return nil, &providers.ConfigError{
			Backend: config.ID,
			Field:   "family",
			Message: fmt.Sprintf("unsupported provider family: %q (supported: %v)", config.Family, providers.Families()),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create backend %q: %w", config.ID, err)
	}

	slog.Info("backend created",
		"backend", config.ID,
		"family", config.Family,
	)
	return provider, nil
}
