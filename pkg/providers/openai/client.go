package openai

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

// DefaultBaseURL is used when the backend config leaves BaseURL empty.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider is the OpenAI-compatible chat completions adapter.
type Provider struct {
	*providers.HTTPProvider
	baseURL string
}

// NewProvider creates an OpenAI adapter for config.
func NewProvider(config providers.BackendConfig, opts ...providers.BaseOption) (*Provider, error) {
	if config.ID == "" {
		return nil, &providers.ConfigError{Backend: "openai", Field: "id", Message: "backend id is required"}
	}
	if config.Model == "" {
		return nil, &providers.ConfigError{Backend: config.ID, Field: "model", Message: "model is required"}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.Family = providers.FamilyOpenAI

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config, opts...),
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
	}
	p.Logger().Info("OpenAI backend initialized", "base_url", p.baseURL, "model", config.Model)
	return p, nil
}

func (p *Provider) headers(stream bool) map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if key := p.Config().APIKey; key != "" {
		h["Authorization"] = "Bearer " + key
	}
	if stream {
		h["Accept"] = "text/event-stream"
	}
	return h
}

// GenerateCompletion sends one chat completion request.
func (p *Provider) GenerateCompletion(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	start := p.Now()
	resp, err := p.complete(ctx, req, start)
	p.Observe(start, resp, err)
	return resp, err
}

func (p *Provider) complete(ctx context.Context, req *providers.Request, start time.Time) (*providers.Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cfg := p.Config()
	body := transformRequest(req, cfg.Model)

	var raw chatResponse
	if err := p.DoJSONRequest(ctx, http.MethodPost, p.baseURL+"/chat/completions", body, &raw, p.headers(false)); err != nil {
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
	resp.Family = providers.FamilyOpenAI
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

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	body := transformRequest(req, cfg.Model)
	body.Stream = true
	body.StreamOptions = &streamOptions{IncludeUsage: true}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &providers.ValidationError{Field: "request", Message: err.Error()}
	}

	httpResp, err := p.DoRequest(ctx, http.MethodPost, p.baseURL+"/chat/completions", payload, p.headers(true))
	if err != nil {
		p.Observe(start, nil, err)
		return nil, err
	}

	stream := newStreamReader(cfg.ID, httpResp.Body)
	chunks := make(chan providers.StreamChunk, 16)

	go func() {
		defer close(chunks)
		defer stream.Close()

		var usage *providers.TokenUsage
		for {
			chunk, err := stream.Next()
			if errors.Is(err, io.EOF) {
				p.ObserveUsage(start, usage, nil)
				return
			}
			if err != nil {
				be := providers.NewBackendError(cfg.ID, "stream", err)
				p.ObserveUsage(start, usage, be)
				select {
				case chunks <- providers.StreamChunk{Err: be}:
				case <-ctx.Done():
				}
				return
			}

			if chunk.Usage != nil {
				usage = chunk.Usage
			}
			if chunk.Delta == "" && chunk.FinishReason == "" && chunk.Usage == nil {
				continue
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				p.ObserveUsage(start, usage, &providers.StreamError{Backend: cfg.ID, Message: "stream cancelled", Cause: ctx.Err()})
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
	return p.Probe(ctx, p.baseURL+"/models", p.headers(false))
}

func validateRequest(req *providers.Request) error {
	if req == nil {
		return &providers.ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if len(req.Messages) == 0 && req.Prompt == "" {
		return &providers.ValidationError{Field: "messages", Message: "at least one message or a prompt is required"}
	}
	return nil
}

var _ providers.Provider = (*Provider)(nil)
