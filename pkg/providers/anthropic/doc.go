// Package anthropic implements the adapter for Anthropic's Messages API.
//
// Requests are translated as follows:
//
//   - system messages move to the top-level system field
//   - a bare prompt is sent as a single user message
//   - functions become tools with an input_schema
//   - max_tokens defaults to 4096 because the API requires it
//
// The API requires the conversation to start with a user message and to
// alternate between user and assistant; violations are rejected locally
// with a ValidationError before any network call.
//
// Streaming uses the named SSE events of the Messages API. Text arrives in
// content_block_delta events; usage is accumulated from message_start and
// message_delta and reported on the final chunk.
package anthropic
