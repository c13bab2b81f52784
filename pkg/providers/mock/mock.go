// Package mock implements a deterministic in-process backend. It is used
// for tests, local development and health checks of the gateway itself.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/switchboard/pkg/providers"
)

// Provider is a mock backend. Its output depends only on its ID and the
// request, so repeated calls are reproducible.
type Provider struct {
	*providers.Base

	mu       sync.Mutex
	failNext int
	failErr  error
	failing  error
	calls    int
}

// New creates a mock backend for config.
func New(config providers.BackendConfig, opts ...providers.BaseOption) *Provider {
	config.Family = providers.FamilyMock
	return &Provider{Base: providers.NewBase(config, opts...)}
}

// Content returns the completion text the mock produces for req.
func Content(backendID string, req *providers.Request) string {
	return fmt.Sprintf("Mock response from %s for: %s", backendID, req.LastUserContent())
}

// StreamTokens returns the fixed fragment sequence streamed by backendID.
func StreamTokens(backendID string) []string {
	return []string{"Mock ", "streaming ", "response ", "from ", backendID}
}

// FailNext makes the next n calls fail with err. A nil err uses a generic
// backend error.
func (p *Provider) FailNext(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = n
	p.failErr = err
}

// SetFailing makes every call fail with err until it is called with nil.
func (p *Provider) SetFailing(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = err
}

// Calls returns the number of completion and stream calls made so far,
// including failed ones.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// injectedFailure consumes one scheduled failure, if any.
func (p *Provider) injectedFailure() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.failing != nil {
		return p.failing
	}
	if p.failNext > 0 {
		p.failNext--
		if p.failErr != nil {
			return p.failErr
		}
		return fmt.Errorf("injected failure")
	}
	return nil
}

// wait sleeps for the configured delay or until ctx is done.
func (p *Provider) wait(ctx context.Context) error {
	delay := p.Config().Delay
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// usageFor estimates token usage with a whitespace word count.
func usageFor(req *providers.Request, completion string) providers.TokenUsage {
	prompt := 0
	for _, m := range req.Messages {
		prompt += len(strings.Fields(m.Content))
	}
	prompt += len(strings.Fields(req.Prompt))
	completionTokens := len(strings.Fields(completion))
	return providers.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completionTokens,
		TotalTokens:      prompt + completionTokens,
	}
}

// GenerateCompletion returns the canned response after the configured delay.
func (p *Provider) GenerateCompletion(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	start := p.Now()

	if err := p.injectedFailure(); err != nil {
		be := providers.NewBackendError(p.ID(), "completion", err)
		p.Observe(start, nil, be)
		return nil, be
	}

	resp, err := p.complete(ctx, req, start)
	p.Observe(start, resp, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// complete builds the canned response without touching the statistics.
func (p *Provider) complete(ctx context.Context, req *providers.Request, start time.Time) (*providers.Response, error) {
	if err := p.wait(ctx); err != nil {
		return nil, providers.NewBackendError(p.ID(), "completion", &providers.TimeoutError{Backend: p.ID()})
	}

	cfg := p.Config()
	content := Content(cfg.ID, req)
	resp := &providers.Response{
		ID:           uuid.NewString(),
		RequestID:    req.ID,
		Backend:      cfg.ID,
		Family:       providers.FamilyMock,
		Model:        cfg.Model,
		Content:      content,
		Usage:        usageFor(req, content),
		FinishReason: providers.FinishReasonStop,
		CreatedAt:    p.Now(),
	}
	resp.ResponseTime = resp.CreatedAt.Sub(start)
	return resp, nil
}

// GenerateStreamingCompletion streams StreamTokens, one fragment per delay
// tick. The attempt is observed once the stream terminates.
func (p *Provider) GenerateStreamingCompletion(ctx context.Context, req *providers.Request) (<-chan providers.StreamChunk, error) {
	start := p.Now()

	if err := p.injectedFailure(); err != nil {
		be := providers.NewBackendError(p.ID(), "stream", err)
		p.Observe(start, nil, be)
		return nil, be
	}

	id := p.ID()
	tokens := StreamTokens(id)
	ch := make(chan providers.StreamChunk, len(tokens))

	go func() {
		defer close(ch)

		var sent int
		fail := func(err error) {
			serr := &providers.StreamError{Backend: id, Message: "stream interrupted", Cause: err}
			usage := providers.TokenUsage{CompletionTokens: sent, TotalTokens: sent}
			p.ObserveUsage(start, &usage, serr)
			select {
			case ch <- providers.StreamChunk{Err: serr}:
			default:
			}
		}

		for i, tok := range tokens {
			if err := p.wait(ctx); err != nil {
				fail(err)
				return
			}

			chunk := providers.StreamChunk{Delta: tok}
			final := i == len(tokens)-1
			if final {
				usage := usageFor(req, strings.Join(tokens, ""))
				chunk.FinishReason = providers.FinishReasonStop
				chunk.Usage = &usage
				p.ObserveUsage(start, &usage, nil)
			}

			select {
			case ch <- chunk:
				sent++
			case <-ctx.Done():
				if !final {
					fail(ctx.Err())
				}
				return
			}
		}
	}()

	return ch, nil
}

// HealthCheck performs a trial completion. The trial is not counted in the
// backend's statistics and does not consume injected failures.
func (p *Provider) HealthCheck(ctx context.Context) error {
	p.mu.Lock()
	failing := p.failing
	p.mu.Unlock()

	if failing != nil {
		return providers.NewBackendError(p.ID(), "health", failing)
	}

	probe := &providers.Request{Prompt: "ping", MaxTokens: 1}
	resp, err := p.complete(ctx, probe, p.Now())
	if err != nil {
		return err
	}
	if resp.Content == "" {
		return providers.NewBackendError(p.ID(), "health", fmt.Errorf("empty trial response"))
	}
	return nil
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}

var _ providers.Provider = (*Provider)(nil)
