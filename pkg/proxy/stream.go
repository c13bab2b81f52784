package proxy

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/telemetry/logging"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
)

// GenerateStreamingCompletion opens a stream on one backend. Streams are
// never cached and never retried: a failure before the stream opens is
// returned, a failure afterwards arrives as the final chunk's Err.
//
// The returned channel is closed when the backend finishes. Callers that
// stop reading must cancel ctx so the backend can release the stream.
func (s *Service) GenerateStreamingCompletion(ctx context.Context, req providers.Request) (<-chan providers.StreamChunk, error) {
	if !s.Running() {
		return nil, ErrServiceStopped
	}
	s.totalRequests.Add(1)
	start := s.opts.Now()

	req.Stream = true
	r, err := s.prepare(req)
	if err != nil {
		s.metrics.RecordRequest("error", s.opts.Now().Sub(start), 0)
		return nil, err
	}

	ctx = logging.WithRequestID(ctx, r.ID)
	ctx, span := s.tracer.Start(ctx, tracing.SpanStream)
	tracing.SetRequestAttributes(span, r.ID, string(r.Kind), true)

	fail := func(err error, attempts int) (<-chan providers.StreamChunk, error) {
		tracing.SetErrorAttributes(span, err, errorType(err))
		span.End()
		s.metrics.RecordRequest("error", s.opts.Now().Sub(start), attempts)
		return nil, err
	}

	if err := s.checkCapabilities(&r); err != nil {
		s.metrics.RecordNoBackend(noBackendReason(err))
		return fail(err, 0)
	}

	p, override, err := s.choose(&r, true)
	if err != nil {
		s.metrics.RecordNoBackend(noBackendReason(err))
		return fail(err, 0)
	}

	if !s.inflight.Acquire() {
		return fail(ErrOverloaded, 0)
	}

	cfg := p.Config()
	tracing.SetBackendAttributes(span, cfg.ID, string(cfg.Family), cfg.Model)
	span.SetAttributes(attribute.Bool(tracing.AttrOverride, override))

	opened := s.opts.Now()
	upstream, err := p.GenerateStreamingCompletion(ctx, &r)
	if err != nil {
		s.inflight.Release()
		err = providers.NewBackendError(cfg.ID, "stream", err)
		kind := errorType(err)
		latency := s.opts.Now().Sub(opened)
		s.metrics.RecordAttempt(cfg.ID, "failure", latency)
		s.metrics.RecordBackendError(cfg.ID, kind)
		s.metrics.RecordStream(cfg.ID, "error")
		s.recordUsage(&r, cfg, 1, nil, latency, err)
		return fail(err, 1)
	}

	s.logger.Debug("stream opened", "request_id", r.ID, "backend", cfg.ID, "override", override)

	out := make(chan providers.StreamChunk)
	go s.relay(ctx, span, &r, cfg, upstream, out, start, opened)
	return out, nil
}

// relay forwards chunks to the caller and records the stream's outcome
// once the backend closes its channel. It keeps draining upstream after
// ctx is done so the adapter goroutine can exit.
func (s *Service) relay(ctx context.Context, span trace.Span, req *providers.Request, cfg providers.BackendConfig, upstream <-chan providers.StreamChunk, out chan<- providers.StreamChunk, start, opened time.Time) {
	defer close(out)
	defer span.End()
	defer s.inflight.Release()

	var (
		streamErr error
		tokens    *providers.TokenUsage
		chunks    int
		detached  bool
	)

	for chunk := range upstream {
		if chunk.Err != nil {
			streamErr = chunk.Err
		}
		if chunk.Usage != nil {
			tokens = chunk.Usage
		}
		chunks++

		if detached {
			continue
		}
		select {
		case out <- chunk:
		case <-ctx.Done():
			detached = true
			if streamErr == nil {
				streamErr = &providers.StreamError{Backend: cfg.ID, Message: "client went away", Cause: ctx.Err()}
			}
		}
	}

	latency := s.opts.Now().Sub(opened)
	status := "success"
	if streamErr != nil {
		status = "error"
		streamErr = providers.NewBackendError(cfg.ID, "stream", streamErr)
		kind := errorType(streamErr)
		s.metrics.RecordAttempt(cfg.ID, "failure", latency)
		s.metrics.RecordBackendError(cfg.ID, kind)
		tracing.SetErrorAttributes(span, streamErr, kind)
		s.logger.Warn("stream ended with error",
			"request_id", req.ID,
			"backend", cfg.ID,
			"chunks", chunks,
			"error", streamErr,
		)
	} else {
		s.metrics.RecordAttempt(cfg.ID, "success", latency)
		if tokens != nil {
			cost := float64(tokens.TotalTokens) * cfg.CostPerToken
			s.metrics.RecordUsage(cfg.ID, tokens.PromptTokens, tokens.CompletionTokens, cost)
			tracing.SetTokenAttributes(span, tokens.PromptTokens, tokens.CompletionTokens)
			tracing.SetCostAttribute(span, cost)
		}
		tracing.SetStatus(span, nil)
	}

	s.metrics.RecordStream(cfg.ID, status)
	s.metrics.RecordRequest(status, s.opts.Now().Sub(start), 1)
	s.recordUsage(req, cfg, 1, tokens, latency, streamErr)
}
