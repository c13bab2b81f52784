package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"mercator-hq/switchboard/pkg/cache"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/limits/ratelimit"
	"mercator-hq/switchboard/pkg/providerfactory"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/routing/strategies"
	"mercator-hq/switchboard/pkg/telemetry/logging"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
	"mercator-hq/switchboard/pkg/usage"
)

// Service is the gateway orchestrator. It owns the registered backends,
// the load balancer and the response cache, and runs every request through
// cache lookup, selection, retry with failover, and cache population.
//
// All state belongs to one Service value, so several services can run in
// the same process without interfering.
type Service struct {
	mu          sync.RWMutex
	running     bool
	startedAt   time.Time
	maxAttempts int
	failover    bool
	configs     map[string]providers.BackendConfig
	scheduler   *cron.Cron

	opts     Options
	balancer *routing.Balancer
	cache    *cache.Cache
	inflight *ratelimit.ConcurrentLimiter
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	usage    *usage.Recorder

	totalRequests atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64

	logger *slog.Logger
}

// NewService creates a stopped service. Unknown strategies fall back to
// round robin with a warning; use config validation to reject them early.
func NewService(opts Options) *Service {
	opts.applyDefaults()

	logger := slog.Default().With("component", "proxy.service")

	strategy, err := strategies.New(opts.Strategy, opts.strategyOptions()...)
	if err != nil {
		logger.Warn("unknown strategy, using round robin", "strategy", opts.Strategy, "error", err)
		strategy = strategies.NewRoundRobinStrategy()
		opts.Strategy = strategies.RoundRobin
	}

	s := &Service{
		maxAttempts: opts.MaxAttempts,
		failover:    opts.Failover,
		configs:     make(map[string]providers.BackendConfig),
		opts:        opts,
		balancer:    routing.NewBalancer(strategy),
		inflight:    ratelimit.NewConcurrentLimiter(opts.MaxConcurrentRequests),
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
		usage:       opts.Usage,
		logger:      logger,
	}

	if opts.CacheEnabled {
		s.cache = cache.New(cache.Config{
			MaxSize:    opts.CacheMaxSize,
			DefaultTTL: opts.CacheTTL,
			Now:        opts.Now,
		})
		s.metrics.ObserveCache(func() metrics.CacheStats {
			st := s.cache.Stats()
			return metrics.CacheStats{Size: st.Size, Evictions: st.Evictions, Expirations: st.Expirations}
		})
	}

	return s
}

// Start marks the service running and schedules cache maintenance.
// Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if s.cache != nil {
		scheduler, err := s.newScheduler()
		if err != nil {
			return err
		}
		scheduler.Start()
		s.scheduler = scheduler
	}

	s.running = true
	s.startedAt = s.opts.Now()

	s.logger.Info("service started",
		"backends", s.balancer.Len(),
		"strategy", s.balancer.Strategy(),
		"cache_enabled", s.cache != nil,
		"max_attempts", s.maxAttempts,
		"failover", s.failover,
	)
	return nil
}

// Stop halts maintenance, flushes the usage recorder and closes every
// backend. Generate calls fail with ErrServiceStopped afterwards.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	scheduler := s.scheduler
	s.scheduler = nil
	s.configs = make(map[string]providers.BackendConfig)
	s.mu.Unlock()

	if scheduler != nil {
		stopped := scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
			s.logger.Warn("maintenance job still running at shutdown")
		}
	}

	var errs []error
	if s.usage != nil {
		if err := s.usage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close usage recorder: %w", err))
		}
	}
	if err := s.balancer.Close(); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("service stopped",
		"total_requests", s.totalRequests.Load(),
		"cache_hits", s.cacheHits.Load(),
	)
	return errors.Join(errs...)
}

// Running reports whether the service accepts requests.
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// RegisterBackend creates the adapter for cfg and adds it to the load
// balancer. A backend with the same ID is replaced.
func (s *Service) RegisterBackend(cfg providers.BackendConfig) error {
	cfg = cfg.Clone()
	config.ApplyBackendDefaults(&cfg)
	if errs := config.ValidateBackend("backend", cfg); len(errs) > 0 {
		return config.ValidationError{Errors: errs}
	}

	opts := append([]providers.BaseOption{
		providers.WithDefaultEstimate(s.opts.DefaultEstimateTokens),
	}, s.opts.BackendOptions...)

	p, err := providerfactory.New(cfg, opts...)
	if err != nil {
		return err
	}
	return s.registerProvider(p, cfg)
}

// RegisterProvider adds an already built adapter. It is the hook for
// adapters that are not created from a BackendConfig family.
func (s *Service) RegisterProvider(p providers.Provider) error {
	return s.registerProvider(p, p.Config())
}

func (s *Service) registerProvider(p providers.Provider, cfg providers.BackendConfig) error {
	if err := s.balancer.Register(p); err != nil {
		return err
	}

	s.mu.Lock()
	s.configs[cfg.ID] = cfg.Clone()
	s.mu.Unlock()

	s.metrics.UpdateBackendHealth(cfg.ID, true)
	return nil
}

// UnregisterBackend removes and closes the backend with the given ID.
func (s *Service) UnregisterBackend(id string) error {
	if err := s.balancer.Unregister(id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.configs, id)
	s.mu.Unlock()

	s.metrics.RemoveBackend(id)
	return nil
}

// retryPolicy returns the current attempt bound and failover flag.
func (s *Service) retryPolicy() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxAttempts, s.failover
}

// prepare copies req and fills the ID, creation time and kind. The
// caller's value is never modified.
func (s *Service) prepare(req providers.Request) (providers.Request, error) {
	r := req.Clone()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.opts.Now()
	}
	if r.Kind == "" {
		if len(r.Messages) > 0 {
			r.Kind = providers.KindChat
		} else {
			r.Kind = providers.KindCompletion
		}
	}
	if len(r.Messages) == 0 && r.Prompt == "" {
		return r, &providers.ValidationError{Field: "messages", Message: "messages or prompt is required"}
	}
	return r, nil
}

// checkCapabilities fails fast when no registered backend could ever serve
// req. A stream nobody can serve reports "no backend available" rather than
// a capability error.
func (s *Service) checkCapabilities(req *providers.Request) error {
	ids := s.balancer.IDs()
	if len(ids) == 0 {
		return &routing.NoBackendAvailableError{}
	}
	if s.balancer.Supports(req) {
		return nil
	}

	if req.IsStreaming() {
		streamOnly := providers.Request{Kind: providers.KindStreaming, Stream: true}
		if !s.balancer.Supports(&streamOnly) {
			return &routing.NoBackendAvailableError{Capability: ids}
		}
	}
	return &routing.CapabilityError{Required: req.RequiredCapabilities()}
}

// GenerateCompletion runs one request through the gateway and returns a
// complete response or a typed error. There is never a partial result.
func (s *Service) GenerateCompletion(ctx context.Context, req providers.Request) (*providers.Response, error) {
	if !s.Running() {
		return nil, ErrServiceStopped
	}
	s.totalRequests.Add(1)
	start := s.opts.Now()

	r, err := s.prepare(req)
	if err != nil {
		s.metrics.RecordRequest("error", s.opts.Now().Sub(start), 0)
		return nil, err
	}

	ctx = logging.WithRequestID(ctx, r.ID)
	ctx, span := s.tracer.Start(ctx, tracing.SpanCompletion)
	defer span.End()
	tracing.SetRequestAttributes(span, r.ID, string(r.Kind), r.IsStreaming())

	if resp, ok := s.lookup(&r); ok {
		tracing.SetCacheAttribute(span, true)
		tracing.SetStatus(span, nil)
		s.metrics.RecordRequest("cache_hit", s.opts.Now().Sub(start), 0)
		s.logger.Debug("cache hit", "request_id", r.ID, "backend", resp.Backend)
		return resp, nil
	}

	resp, attempts, err := s.execute(ctx, &r)
	tracing.SetAttemptsAttribute(span, attempts)
	if err != nil {
		tracing.SetErrorAttributes(span, err, errorType(err))
		s.metrics.RecordRequest("error", s.opts.Now().Sub(start), attempts)
		s.logger.Warn("request failed",
			append(logging.Fields(ctx), "attempts", attempts, "error", err)...,
		)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(&r, resp, cache.UseDefaultTTL)
	}

	tracing.SetStatus(span, nil)
	s.metrics.RecordRequest("success", s.opts.Now().Sub(start), attempts)
	return resp, nil
}

// lookup consults the cache and counts the hit or miss.
func (s *Service) lookup(req *providers.Request) (*providers.Response, bool) {
	if s.cache == nil || req.IsStreaming() {
		return nil, false
	}

	resp, ok := s.cache.Get(req)
	if !ok {
		s.cacheMisses.Add(1)
		s.metrics.RecordCacheMiss()
		return nil, false
	}

	s.cacheHits.Add(1)
	s.metrics.RecordCacheHit()

	resp.RequestID = req.ID
	if resp.Metadata == nil {
		resp.Metadata = make(map[string]string)
	}
	resp.Metadata["cache"] = "hit"
	return resp, true
}

// execute runs the select/attempt loop and returns the response and the
// number of backend calls made.
func (s *Service) execute(ctx context.Context, req *providers.Request) (*providers.Response, int, error) {
	if err := s.checkCapabilities(req); err != nil {
		s.metrics.RecordNoBackend(noBackendReason(err))
		return nil, 0, err
	}

	if !s.inflight.Acquire() {
		return nil, 0, ErrOverloaded
	}
	defer s.inflight.Release()

	maxAttempts, failover := s.retryPolicy()
	if !failover {
		maxAttempts = 1
	}

	var lastErr error
	attempts := 0
	for attempts < maxAttempts {
		if lastErr != nil && ctx.Err() != nil {
			break
		}

		p, override, err := s.choose(req, attempts == 0)
		if err != nil {
			s.metrics.RecordNoBackend(noBackendReason(err))
			if lastErr == nil {
				return nil, attempts, err
			}
			s.logger.Warn("no backend left for retry", "request_id", req.ID, "error", err)
			break
		}

		attempts++
		resp, err := s.attempt(ctx, p, req, attempts, override)
		if err == nil {
			return resp, attempts, nil
		}
		lastErr = err

		s.logger.Warn("backend attempt failed",
			"request_id", req.ID,
			"backend", p.Config().ID,
			"attempt", attempts,
			"max_attempts", maxAttempts,
			"error", err,
		)
	}

	if !failover {
		return nil, attempts, lastErr
	}
	return nil, attempts, &RetriesExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// choose picks the backend for the next attempt. On the first attempt an
// explicit model override is honored when it resolves to a backend that can
// take the request.
func (s *Service) choose(req *providers.Request, first bool) (providers.Provider, bool, error) {
	if first && req.Model != "" {
		if p := s.resolveOverride(req.Model); p != nil {
			if p.CanHandleRequest(req) {
				return p, true, nil
			}
			s.logger.Info("override backend cannot take request, using load balancer",
				"request_id", req.ID,
				"backend", p.Config().ID,
			)
		} else {
			s.logger.Warn("override names no registered backend, ignoring",
				"request_id", req.ID,
				"model", req.Model,
			)
		}
	}

	p, err := s.balancer.Select(req)
	if err != nil {
		return nil, false, err
	}
	return p, false, nil
}

// resolveOverride finds a backend by ID, then by model name.
func (s *Service) resolveOverride(name string) providers.Provider {
	if p, ok := s.balancer.Get(name); ok {
		return p
	}
	for _, p := range s.balancer.Providers() {
		if p.Config().Model == name {
			return p
		}
	}
	return nil
}

// attempt performs one backend call with the backend's timeout and records
// metrics, trace and usage whatever the outcome.
func (s *Service) attempt(ctx context.Context, p providers.Provider, req *providers.Request, n int, override bool) (*providers.Response, error) {
	cfg := p.Config()

	ctx = logging.WithBackend(ctx, cfg.ID)
	ctx = logging.WithModel(ctx, cfg.Model)
	ctx = logging.WithAttempt(ctx, n)
	ctx, span := s.tracer.Start(ctx, tracing.SpanAttempt, tracing.AttemptOptions(n, override))
	defer span.End()
	tracing.SetBackendAttributes(span, cfg.ID, string(cfg.Family), cfg.Model)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := s.opts.Now()
	resp, err := p.GenerateCompletion(ctx, req)
	latency := s.opts.Now().Sub(start)

	if err != nil {
		err = providers.NewBackendError(cfg.ID, "completion", err)
		kind := errorType(err)
		s.metrics.RecordAttempt(cfg.ID, "failure", latency)
		s.metrics.RecordBackendError(cfg.ID, kind)
		tracing.SetErrorAttributes(span, err, kind)
		s.recordUsage(req, cfg, n, nil, latency, err)
		return nil, err
	}

	if resp.RequestID == "" {
		resp.RequestID = req.ID
	}
	if resp.Backend == "" {
		resp.Backend = cfg.ID
	}
	if resp.ResponseTime == 0 {
		resp.ResponseTime = latency
	}

	cost := float64(resp.Usage.TotalTokens) * cfg.CostPerToken
	s.metrics.RecordAttempt(cfg.ID, "success", latency)
	s.metrics.RecordUsage(cfg.ID, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, cost)
	tracing.SetTokenAttributes(span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	tracing.SetCostAttribute(span, cost)
	tracing.SetStatus(span, nil)
	s.recordUsage(req, cfg, n, &resp.Usage, latency, nil)

	return resp, nil
}

// recordUsage hands one attempt to the usage ledger.
func (s *Service) recordUsage(req *providers.Request, cfg providers.BackendConfig, attempt int, tokens *providers.TokenUsage, latency time.Duration, err error) {
	if s.usage == nil {
		return
	}

	record := &usage.Record{
		RequestID: req.ID,
		Backend:   cfg.ID,
		Model:     cfg.Model,
		Status:    usage.StatusSuccess,
		Attempt:   attempt,
		Stream:    req.IsStreaming(),
		Latency:   latency,
		Time:      s.opts.Now(),
	}
	if tokens != nil {
		record.PromptTokens = tokens.PromptTokens
		record.CompletionTokens = tokens.CompletionTokens
		record.TotalTokens = tokens.TotalTokens
		record.Cost = float64(tokens.TotalTokens) * cfg.CostPerToken
	}
	if err != nil {
		record.Status = usage.StatusFailure
		record.Error = err.Error()
	}

	if err := s.usage.Record(record); err != nil {
		s.logger.Debug("usage record not accepted", "request_id", req.ID, "error", err)
	}
}
