// Package telemetry groups the observability packages of Switchboard.
//
// # Components
//
//   - logging: slog-based structured logging with PII redaction and
//     rotating file output
//   - metrics: Prometheus collectors for requests, backend attempts,
//     token usage and the response cache
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness and readiness checks
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordAttempt("primary", "success", 120*time.Millisecond)
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "gateway.completion")
//	defer span.End()
//
// Every collector is safe to use as a nil pointer, in which case it does
// nothing. Components accept them unconditionally.
//
// # PII Protection
//
// With redaction enabled, log attributes are scrubbed before they are
// written:
//
//   - API keys: sk-abc12345 → sk-***
//   - Bearer tokens: Bearer abc → Bearer ***
//   - Emails: user@example.com → u***@example.com
//
// Custom redaction patterns can be configured.
package telemetry
