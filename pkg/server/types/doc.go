// Package types defines the JSON request and response bodies of the
// Switchboard HTTP API.
//
// # Core Types
//
// Request types:
//   - CompletionRequest: body of POST /v1/completions
//   - Message: one message of the conversation history
//   - FunctionDefinition: a function offered to the model
//
// Response types:
//   - CompletionResponse: non-streaming completion
//   - StreamChunk: one Server-Sent Event of a streaming completion
//   - ModelList, Model: GET /v1/models
//   - Usage: token usage statistics
//
// Error types:
//   - ErrorResponse: error envelope with type, message, param and code
//
// # Example
//
//	curl -s localhost:8080/v1/completions -d '{
//	    "messages": [{"role": "user", "content": "Hello!"}],
//	    "max_tokens": 128
//	}'
//
// With "stream": true the response is a text/event-stream of StreamChunk
// events terminated by "data: [DONE]".
//
// # Validation
//
// CompletionRequest.Validate checks required fields and value ranges
// before the request reaches the gateway. Validation errors are returned
// as invalid_request_error with the offending field in param.
package types
