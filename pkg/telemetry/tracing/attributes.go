package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names
const (
	SpanCompletion = "switchboard.completion"
	SpanStream     = "switchboard.stream"
	SpanAttempt    = "switchboard.attempt"
)

// Attribute keys use the "switchboard.*" namespace.
const (
	AttrRequestID = "switchboard.request_id"
	AttrKind      = "switchboard.kind"
	AttrStream    = "switchboard.stream"
	AttrStrategy  = "switchboard.strategy"

	AttrBackend  = "switchboard.backend"
	AttrFamily   = "switchboard.family"
	AttrModel    = "switchboard.model"
	AttrAttempt  = "switchboard.attempt"
	AttrOverride = "switchboard.override"

	AttrTokensPrompt     = "switchboard.tokens.prompt"
	AttrTokensCompletion = "switchboard.tokens.completion"
	AttrTokensTotal      = "switchboard.tokens.total"
	AttrCost             = "switchboard.cost_usd"

	AttrCacheHit  = "switchboard.cache.hit"
	AttrAttempts  = "switchboard.attempts"
	AttrErrorType = "switchboard.error.type"
)

// SetRequestAttributes sets the request-level attributes on a span.
func SetRequestAttributes(span trace.Span, requestID, kind string, stream bool) {
	span.SetAttributes(
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrKind, kind),
		attribute.Bool(AttrStream, stream),
	)
}

// SetBackendAttributes sets the chosen backend on a span.
//
// Example:
//
//	SetBackendAttributes(span, "openai-primary", "openai", "gpt-4o")
func SetBackendAttributes(span trace.Span, backend, family, model string) {
	span.SetAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String(AttrFamily, family),
		attribute.String(AttrModel, model),
	)
}

// AttemptOptions returns span start options for attempt n (1-based).
func AttemptOptions(attempt int, override bool) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.Int(AttrAttempt, attempt),
		attribute.Bool(AttrOverride, override),
	)
}

// SetTokenAttributes sets token usage attributes on a span.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens int) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Int(AttrTokensTotal, promptTokens+completionTokens),
	)
}

// SetCostAttribute sets the estimated cost in USD.
func SetCostAttribute(span trace.Span, cost float64) {
	span.SetAttributes(attribute.Float64(AttrCost, cost))
}

// SetCacheAttribute records whether the response came from the cache.
func SetCacheAttribute(span trace.Span, hit bool) {
	span.SetAttributes(attribute.Bool(AttrCacheHit, hit))
}

// SetAttemptsAttribute records how many backend attempts a call took.
func SetAttemptsAttribute(span trace.Span, attempts int) {
	span.SetAttributes(attribute.Int(AttrAttempts, attempts))
}

// SetErrorAttributes marks the span failed with a classified error type.
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	SetError(span, err)
	if errorType != "" {
		span.SetAttributes(attribute.String(AttrErrorType, errorType))
	}
	SetStatus(span, err)
}
