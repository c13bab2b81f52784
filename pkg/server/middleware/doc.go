// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server wraps its route mux in:
//
//	handler = Recovery(RequestID(Logging(Tracing(Timeout(mux)))))
//
// Order (innermost to outermost):
//  1. Timeout: bound the request context
//  2. Tracing: extract the caller's trace context and open a server span
//  3. Logging: log method, path, status and latency
//  4. RequestID: generate or accept X-Request-ID
//  5. Recovery: turn panics into 500 responses
//
// RequestID runs before Logging so every request log line carries the ID.
//
// # Request ID
//
// RequestIDMiddleware accepts a client-supplied X-Request-ID of up to 128
// bytes and otherwise generates a UUID v4. The ID is stored in the request
// context, in the logging context, and in the response header. The gateway
// uses it as the request ID, so usage records, spans and log lines
// correlate with what the client saw.
//
// # Streaming
//
// The logging wrapper implements http.Flusher and Unwrap so Server-Sent
// Events flush through it and http.ResponseController reaches the
// underlying connection.
//
// # Recovery
//
// RecoveryMiddleware converts panics to a server_error envelope. The stack
// trace is logged, never returned. http.ErrAbortHandler is re-raised.
package middleware
