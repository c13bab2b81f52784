package handlers

import (
	"context"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/proxy"
)

// Service is the gateway surface the handlers call. *proxy.Service
// implements it.
type Service interface {
	GenerateCompletion(ctx context.Context, req providers.Request) (*providers.Response, error)
	GenerateStreamingCompletion(ctx context.Context, req providers.Request) (<-chan providers.StreamChunk, error)
	ListAvailableModels() []proxy.ModelInfo
	GetProviderStats() map[string]providers.BackendStats
	GetServiceStats() proxy.ServiceStats
	HealthCheck(ctx context.Context) proxy.HealthReport
}

var _ Service = (*proxy.Service)(nil)
