package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

// Context keys for the fields every gateway log line may carry.
const (
	RequestIDKey contextKey = "request_id"
	BackendKey   contextKey = "backend"
	ModelKey     contextKey = "model"
	AttemptKey   contextKey = "attempt"
)

// WithRequestID tags ctx with the gateway request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request ID carried by ctx, or "".
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithBackend tags ctx with the backend serving the current attempt.
func WithBackend(ctx context.Context, backend string) context.Context {
	return context.WithValue(ctx, BackendKey, backend)
}

// GetBackend returns the backend ID carried by ctx, or "".
func GetBackend(ctx context.Context) string {
	return stringValue(ctx, BackendKey)
}

// WithModel tags ctx with the upstream model of the current attempt.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel returns the model carried by ctx, or "".
func GetModel(ctx context.Context) string {
	return stringValue(ctx, ModelKey)
}

// WithAttempt tags ctx with the 1-based attempt number.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, AttemptKey, attempt)
}

// GetAttempt returns the attempt number carried by ctx, or 0.
func GetAttempt(ctx context.Context) int {
	attempt, _ := ctx.Value(AttemptKey).(int)
	return attempt
}

func stringValue(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// Fields returns the context's log fields as key-value pairs, suitable for
// slog.Logger.With. The trace ID of an active sampled span is included so
// log lines can be joined with traces.
func Fields(ctx context.Context) []any {
	return extractContextFields(ctx)
}

func extractContextFields(ctx context.Context) []any {
	var fields []any

	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, "request_id", v)
	}
	if v := GetBackend(ctx); v != "" {
		fields = append(fields, "backend", v)
	}
	if v := GetModel(ctx); v != "" {
		fields = append(fields, "model", v)
	}
	if v := GetAttempt(ctx); v > 0 {
		fields = append(fields, "attempt", v)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() && sc.IsSampled() {
		fields = append(fields, "trace_id", sc.TraceID().String())
	}

	return fields
}
