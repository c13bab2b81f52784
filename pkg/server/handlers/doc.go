// Package handlers provides the HTTP handlers of the Switchboard API.
//
// # Handler Types
//
// Completion handlers:
//   - CompletionsHandler: POST /v1/completions, JSON or Server-Sent Events
//
// Introspection handlers:
//   - ModelsHandler: GET /v1/models
//   - StatsHandler: GET /v1/stats
//   - ProviderStatsHandler: GET /v1/stats/providers
//   - HealthHandler: GET /health
//   - UsageHandler: GET /v1/usage and GET /v1/usage/summary
//
// # Request Flow
//
// A completion request is handled as:
//
//  1. Parse and validate the body (size limit, JSON, field ranges)
//  2. Convert it to a gateway request carrying the X-Request-ID
//  3. Call the Service
//  4. Convert the response, or map the error with HandleError
//
// # Streaming
//
// Each chunk is written as one "data:" event and flushed. A successful
// stream ends with "data: [DONE]". A failure after the stream opened is
// written as an "event: error" carrying the error envelope, and [DONE] is
// not sent.
//
// # Errors
//
// HandleError maps gateway errors to status codes:
//
//	validation, capability          400 invalid_request_error
//	upstream 429                    429 rate_limit_exceeded
//	upstream failure                502 bad_gateway
//	no backend, exhausted, stopped  503 service_unavailable
//	deadline                        504 gateway_timeout
package handlers
