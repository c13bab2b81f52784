package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubProvider is a minimal Provider built on Base for health classification.
type stubProvider struct {
	*Base
}

func (s *stubProvider) GenerateCompletion(context.Context, *Request) (*Response, error) {
	return &Response{}, nil
}

func (s *stubProvider) GenerateStreamingCompletion(context.Context, *Request) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk)
	close(ch)
	return ch, nil
}

func (s *stubProvider) HealthCheck(context.Context) error { return nil }

func (s *stubProvider) Close() error { return nil }

func TestClassifyHealth(t *testing.T) {
	fresh := &stubProvider{Base: NewBase(BackendConfig{ID: "fresh", RequestsPerMinute: 1})}

	saturated := &stubProvider{Base: NewBase(BackendConfig{ID: "busy", RequestsPerMinute: 1})}
	saturated.Observe(time.Now(), nil, nil)

	tests := []struct {
		name string
		p    Provider
		err  error
		want HealthStatus
	}{
		{"available", fresh, nil, HealthAvailable},
		{"probe failed", fresh, errors.New("connection refused"), HealthUnavailable},
		{"upstream 429", fresh, &BackendError{Backend: "fresh", Cause: &RateLimitError{Backend: "fresh"}}, HealthRateLimited},
		{"local limiter saturated", saturated, nil, HealthRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyHealth(tt.p, tt.err); got != tt.want {
				t.Errorf("ClassifyHealth() = %q, want %q", got, tt.want)
			}
		})
	}
}
