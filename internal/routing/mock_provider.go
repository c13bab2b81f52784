// Package routing holds test doubles for the load balancer and strategies.
package routing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"mercator-hq/switchboard/pkg/providers"
)

// MockProvider is a Provider with directly settable stats and eligibility.
// Unlike the mock backend family it has no limiter; tests flip eligibility
// by hand.
type MockProvider struct {
	mu       sync.Mutex
	config   providers.BackendConfig
	stats    providers.BackendStats
	eligible bool

	calls  atomic.Int64
	closed atomic.Bool
}

// NewMockProvider creates an eligible mock with the given ID.
func NewMockProvider(id string) *MockProvider {
	return &MockProvider{
		config: providers.BackendConfig{
			ID:           id,
			Family:       providers.FamilyMock,
			Model:        id + "-model",
			Capabilities: []providers.Capability{providers.CapabilityChat},
			Weight:       1,
		},
		eligible: true,
	}
}

// WithConfig replaces the config, keeping the ID.
func (m *MockProvider) WithConfig(fn func(*providers.BackendConfig)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.config)
	return m
}

// SetStats replaces the stats snapshot.
func (m *MockProvider) SetStats(stats providers.BackendStats) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
	return m
}

// SetEligible controls CanHandleRequest.
func (m *MockProvider) SetEligible(eligible bool) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eligible = eligible
	return m
}

// Calls returns the number of GenerateCompletion calls.
func (m *MockProvider) Calls() int64 {
	return m.calls.Load()
}

// Closed reports whether Close was called.
func (m *MockProvider) Closed() bool {
	return m.closed.Load()
}

func (m *MockProvider) GenerateCompletion(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	m.calls.Add(1)
	return &providers.Response{Backend: m.config.ID, Content: "mock response"}, nil
}

func (m *MockProvider) GenerateStreamingCompletion(ctx context.Context, req *providers.Request) (<-chan providers.StreamChunk, error) {
	return nil, fmt.Errorf("streaming not implemented for %s", m.config.ID)
}

func (m *MockProvider) CanHandleRequest(req *providers.Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.eligible {
		return false
	}
	for _, c := range req.RequiredCapabilities() {
		if !m.config.HasCapability(c) {
			return false
		}
	}
	return true
}

func (m *MockProvider) Stats() providers.BackendStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *MockProvider) Config() providers.BackendConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Clone()
}

func (m *MockProvider) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockProvider) Close() error {
	m.closed.Store(true)
	return nil
}

var _ providers.Provider = (*MockProvider)(nil)
