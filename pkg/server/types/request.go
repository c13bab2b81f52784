package types

import (
	"fmt"

	"mercator-hq/switchboard/pkg/providers"
)

// CompletionRequest is the body of POST /v1/completions.
type CompletionRequest struct {
	// Model optionally pins the first attempt to a backend ID or model name.
	Model string `json:"model,omitempty"`

	// Messages is the conversation history. Either Messages or Prompt is
	// required.
	Messages []Message `json:"messages,omitempty"`

	// Prompt is a raw completion prompt.
	Prompt string `json:"prompt,omitempty"`

	// MaxTokens is the maximum number of tokens to generate. It is also the
	// admission estimate used by backend rate limiters.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness in the response (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0).
	TopP *float64 `json:"top_p,omitempty"`

	// PresencePenalty penalizes new tokens based on presence in text so far (-2.0 to 2.0).
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`

	// FrequencyPenalty penalizes new tokens based on frequency in text so far (-2.0 to 2.0).
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`

	// Stop is a list of sequences where generation stops. At most 4.
	Stop []string `json:"stop,omitempty"`

	// Functions is the function-call schema offered to the model.
	Functions []FunctionDefinition `json:"functions,omitempty"`

	// Stream switches the response to Server-Sent Events.
	Stream bool `json:"stream,omitempty"`

	// Metadata is free-form caller context. It is never sent upstream.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the author of the message ("system", "user", "assistant", or "tool").
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`

	// Name is the name of the author (optional).
	Name string `json:"name,omitempty"`
}

// FunctionDefinition describes a function that can be called by the model.
type FunctionDefinition struct {
	// Name is the name of the function to call.
	Name string `json:"name"`

	// Description explains what the function does.
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the function parameters.
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Validate validates the completion request.
// It checks that required fields are present and values are within acceptable ranges.
func (r *CompletionRequest) Validate() error {
	if len(r.Messages) == 0 && r.Prompt == "" {
		return &ValidationError{
			Field:   "messages",
			Message: "messages or prompt is required",
		}
	}

	if r.Temperature != nil && (*r.Temperature < 0.0 || *r.Temperature > 2.0) {
		return &ValidationError{
			Field:   "temperature",
			Message: "temperature must be between 0.0 and 2.0",
		}
	}

	if r.TopP != nil && (*r.TopP < 0.0 || *r.TopP > 1.0) {
		return &ValidationError{
			Field:   "top_p",
			Message: "top_p must be between 0.0 and 1.0",
		}
	}

	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return &ValidationError{
			Field:   "max_tokens",
			Message: "max_tokens must be greater than 0",
		}
	}

	if len(r.Stop) > 4 {
		return &ValidationError{
			Field:   "stop",
			Message: "stop sequences must not exceed 4",
		}
	}

	if r.PresencePenalty != nil && (*r.PresencePenalty < -2.0 || *r.PresencePenalty > 2.0) {
		return &ValidationError{
			Field:   "presence_penalty",
			Message: "presence_penalty must be between -2.0 and 2.0",
		}
	}

	if r.FrequencyPenalty != nil && (*r.FrequencyPenalty < -2.0 || *r.FrequencyPenalty > 2.0) {
		return &ValidationError{
			Field:   "frequency_penalty",
			Message: "frequency_penalty must be between -2.0 and 2.0",
		}
	}

	for i, msg := range r.Messages {
		if msg.Role == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "message role is required",
			}
		}
	}

	for i, fn := range r.Functions {
		if fn.Name == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("functions[%d].name", i),
				Message: "function name is required",
			}
		}
	}

	return nil
}

// ToProviderRequest converts the wire request into the gateway request.
// The ID is taken from the HTTP request ID so logs and responses correlate.
func (r *CompletionRequest) ToProviderRequest(requestID string) providers.Request {
	req := providers.Request{
		ID:       requestID,
		Model:    r.Model,
		Prompt:   r.Prompt,
		Stop:     r.Stop,
		Stream:   r.Stream,
		Metadata: r.Metadata,
	}

	if len(r.Messages) > 0 {
		req.Kind = providers.KindChat
		req.Messages = make([]providers.Message, len(r.Messages))
		for i, m := range r.Messages {
			req.Messages[i] = providers.Message{Role: m.Role, Content: m.Content, Name: m.Name}
		}
	} else {
		req.Kind = providers.KindCompletion
	}

	if len(r.Functions) > 0 {
		req.Functions = make([]providers.FunctionDefinition, len(r.Functions))
		for i, f := range r.Functions {
			req.Functions[i] = providers.FunctionDefinition{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Parameters,
			}
		}
	}

	if r.MaxTokens != nil {
		req.MaxTokens = *r.MaxTokens
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if r.TopP != nil {
		req.TopP = *r.TopP
	}
	if r.PresencePenalty != nil {
		req.PresencePenalty = *r.PresencePenalty
	}
	if r.FrequencyPenalty != nil {
		req.FrequencyPenalty = *r.FrequencyPenalty
	}

	return req
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
