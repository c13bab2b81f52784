// Package server provides the HTTP front end of the Switchboard gateway.
//
// # Routes
//
//	POST /v1/completions        completion, SSE when "stream": true
//	GET  /v1/models             registered backends
//	GET  /v1/stats              service statistics
//	GET  /v1/stats/providers    per-backend statistics
//	GET  /v1/usage              usage ledger records
//	GET  /v1/usage/summary      usage ledger per-backend totals
//	GET  /health                backend health probe (200 healthy or degraded)
//	GET  /livez, /readyz        liveness and readiness probes
//	GET  /version               build information
//	GET  /metrics               Prometheus metrics, when enabled
//
// # Basic Usage
//
//	svc := proxy.NewService(proxy.OptionsFromConfig(cfg))
//	// register backends, svc.Start(ctx)
//
//	srv := server.NewServer(cfg.Server, svc, server.Options{Metrics: collector})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled and then shuts down gracefully within
// ShutdownTimeout. Signal handling belongs to the caller.
package server
