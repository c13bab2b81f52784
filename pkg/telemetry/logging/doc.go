// Package logging provides structured logging with redaction.
//
// # Overview
//
// The logging package wraps log/slog with:
//   - JSON and text handlers
//   - Redaction of API keys, bearer tokens, emails and passwords
//   - Context fields (request_id, backend, model, attempt, trace_id)
//   - Optional rotating file output through lumberjack
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
// Components log through slog.Default() with a component field, so the
// level, format and redaction chosen here apply everywhere:
//
//	log := slog.Default().With("component", "proxy")
//	log.Info("backend registered", "backend", id)
//
// Redaction runs in the handler, so values passed to slog directly are
// scrubbed as well.
package logging
