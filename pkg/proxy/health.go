package proxy

import (
	"context"
	"time"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/telemetry/health"
)

// Overall service health.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusStopped   = "stopped"
)

// HealthReport is the result of probing every registered backend.
type HealthReport struct {
	Status    string                             `json:"status"`
	Backends  map[string]providers.BackendHealth `json:"backends"`
	CheckedAt time.Time                          `json:"checked_at"`
}

// Healthy reports whether every backend is available.
func (r HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}

// HealthCheck probes every backend concurrently, each bounded by the
// configured health check timeout.
func (s *Service) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{
		Backends:  make(map[string]providers.BackendHealth),
		CheckedAt: s.opts.Now(),
	}

	if !s.Running() {
		report.Status = StatusStopped
		return report
	}

	backends := s.balancer.Providers()
	if len(backends) == 0 {
		report.Status = StatusUnhealthy
		return report
	}

	checks := make(map[string]health.CheckFunc, len(backends))
	byID := make(map[string]providers.Provider, len(backends))
	for _, p := range backends {
		id := p.Config().ID
		byID[id] = p
		checks[id] = p.HealthCheck
	}

	results := health.Run(ctx, s.opts.HealthCheckTimeout, checks)

	available := 0
	for id, result := range results {
		p := byID[id]
		status := providers.ClassifyHealth(p, result.Err)

		bh := providers.BackendHealth{
			Backend:   id,
			Status:    status,
			Latency:   result.Duration,
			CheckedAt: report.CheckedAt,
		}
		if result.Err != nil {
			bh.Error = result.Err.Error()
		}
		report.Backends[id] = bh

		if status == providers.HealthAvailable {
			available++
		}
		s.metrics.UpdateBackendHealth(id, status != providers.HealthUnavailable)
	}

	switch {
	case available == len(backends):
		report.Status = StatusHealthy
	case available > 0:
		report.Status = StatusDegraded
	default:
		report.Status = StatusUnhealthy
	}

	s.logger.Debug("health check completed",
		"status", report.Status,
		"available", available,
		"backends", len(backends),
	)
	return report
}
