package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/switchboard/pkg/providers"
)

const (
	// DefaultBaseURL is used when the backend config leaves BaseURL empty.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAnthropicVersion is the API version header value.
	DefaultAnthropicVersion = "2023-06-01"
)

// Provider is the Anthropic Messages API adapter.
type Provider struct {
	*providers.HTTPProvider
	baseURL string
}

// NewProvider creates an Anthropic adapter for config. An API key is
// required.
func NewProvider(config providers.BackendConfig, opts ...providers.BaseOption) (*Provider, error) {
	if config.ID == "" {
		return nil, &providers.ConfigError{Backend: "anthropic", Field: "id", Message: "backend id is required"}
	}
	if config.Model == "" {
		return nil, &providers.ConfigError{Backend: config.ID, Field: "model", Message: "model is required"}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{Backend: config.ID, Field: "api_key", Message: "API key is required for Anthropic"}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.Family = providers.FamilyAnthropic

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config, opts...),
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
	}
	p.Logger().Info("Anthropic backend initialized", "base_url", p.baseURL, "model", config.Model)
	return p, nil
}

func (p *Provider) headers(stream bool) map[string]string {
	h := map[string]string{
		"x-api-key":         p.Config().APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Content-Type":      "application/json",
	}
	if stream {
		h["Accept"] = "text/event-stream"
	}
	return h
}

// GenerateCompletion sends one Messages API request.
func (p *Provider) GenerateCompletion(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	start := p.Now()
	resp, err := p.complete(ctx, req, start)
	p.Observe(start, resp, err)
	return resp, err
}

func (p *Provider) complete(ctx context.Context, req *providers.Request, start time.Time) (*providers.Response, error) {
	cfg := p.Config()
	body, err := transformRequest(req, cfg.Model)
	if err != nil {
		return nil, err
	}

	var raw messagesResponse
	if err := p.DoJSONRequest(ctx, http.MethodPost, p.baseURL+"/v1/messages", body, &raw, p.headers(false)); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&raw)
	if err != nil {
		return nil, providers.NewBackendError(cfg.ID, "completion", &providers.ParseError{Backend: cfg.ID, Cause: err})
	}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	resp.RequestID = req.ID
	resp.Backend = cfg.ID
	resp.Family = providers.FamilyAnthropic
	resp.CreatedAt = p.Now()
	resp.ResponseTime = resp.CreatedAt.Sub(start)

	p.Logger().Debug("completion request succeeded", "model", resp.Model, "tokens", resp.Usage.TotalTokens)
	return resp, nil
}

// GenerateStreamingCompletion opens an SSE stream. The attempt is observed
// once the stream ends.
func (p *Provider) GenerateStreamingCompletion(ctx context.Context, req *providers.Request) (<-chan providers.StreamChunk, error) {
	start := p.Now()
	cfg := p.Config()

	body, err := transformRequest(req, cfg.Model)
	if err != nil {
		return nil, err
	}
	body.Stream = true

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &providers.ValidationError{Field: "request", Message: err.Error()}
	}

	httpResp, err := p.DoRequest(ctx, http.MethodPost, p.baseURL+"/v1/messages", payload, p.headers(true))
	if err != nil {
		p.Observe(start, nil, err)
		return nil, err
	}

	stream := newStreamReader(cfg.ID, httpResp.Body)
	chunks := make(chan providers.StreamChunk, 16)

	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			chunk, err := stream.Next()
			if errors.Is(err, io.EOF) {
				p.ObserveUsage(start, stream.Usage(), nil)
				return
			}
			if err != nil {
				be := providers.NewBackendError(cfg.ID, "stream", err)
				p.ObserveUsage(start, stream.Usage(), be)
				select {
				case chunks <- providers.StreamChunk{Err: be}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				p.ObserveUsage(start, stream.Usage(), &providers.StreamError{Backend: cfg.ID, Message: "stream cancelled", Cause: ctx.Err()})
				return
			}
		}
	}()

	return chunks, nil
}

// HealthCheck reports available unless probing is enabled, in which case
// it lists the models endpoint.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if !p.Config().Probe {
		return nil
	}
	return p.Probe(ctx, p.baseURL+"/v1/models", p.headers(false))
}

var _ providers.Provider = (*Provider)(nil)
