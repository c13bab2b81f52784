// Package server provides the HTTP front end of the Switchboard gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/proxy"
	"mercator-hq/switchboard/pkg/server/handlers"
	"mercator-hq/switchboard/pkg/server/middleware"
	"mercator-hq/switchboard/pkg/telemetry/health"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
	"mercator-hq/switchboard/pkg/usage"
)

// DefaultMetricsPath is where metrics are served when no path is set.
const DefaultMetricsPath = "/metrics"

// Options carries the optional collaborators of a Server.
type Options struct {
	// Metrics is exposed at MetricsPath. Nil disables the route.
	Metrics     *metrics.Collector
	MetricsPath string

	// Usage backs the /v1/usage routes. Nil answers 404.
	Usage usage.Store

	// Build information for /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP server in front of a proxy.Service.
type Server struct {
	config     config.ServerConfig
	service    *proxy.Service
	opts       Options
	checker    *health.Checker
	httpServer *http.Server
	listener   net.Listener

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	logger       *slog.Logger
}

// NewServer creates a server for svc.
func NewServer(cfg config.ServerConfig, svc *proxy.Service, opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = DefaultMetricsPath
	}

	s := &Server{
		config:  cfg,
		service: svc,
		opts:    opts,
		checker: health.New(0),
		logger:  slog.Default().With("component", "server"),
	}

	s.checker.RegisterCheck("gateway", func(ctx context.Context) error {
		if !svc.Running() {
			return proxy.ErrServiceStopped
		}
		return nil
	})
	s.checker.RegisterCheck("backends", func(ctx context.Context) error {
		report := svc.HealthCheck(ctx)
		switch report.Status {
		case proxy.StatusHealthy, proxy.StatusDegraded:
			return nil
		default:
			return fmt.Errorf("backends %s", report.Status)
		}
	})

	return s
}

// Start listens on the configured address and serves until ctx is
// cancelled or the server fails. Cancellation triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	usageHandler := handlers.NewUsageHandler(s.opts.Usage)

	mux.Handle("POST /v1/completions", handlers.NewCompletionsHandler(s.service, s.config.MaxRequestBytes))
	mux.Handle("GET /v1/models", handlers.NewModelsHandler(s.service))
	mux.Handle("GET /v1/stats", handlers.NewStatsHandler(s.service))
	mux.Handle("GET /v1/stats/providers", handlers.NewProviderStatsHandler(s.service))
	mux.HandleFunc("GET /v1/usage", usageHandler.List)
	mux.HandleFunc("GET /v1/usage/summary", usageHandler.Summary)
	mux.Handle("GET /health", handlers.NewHealthHandler(s.service))
	mux.Handle("GET /livez", s.checker.LivenessHandler())
	mux.Handle("GET /readyz", s.checker.ReadinessHandler())
	mux.Handle("GET /version", health.VersionHandler(s.opts.Version, s.opts.Commit, s.opts.BuildTime))
	if s.opts.Metrics != nil {
		mux.Handle("GET "+s.opts.MetricsPath, s.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(s.config.RequestTimeout)(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
