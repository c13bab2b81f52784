package anthropic

import (
	"encoding/json"
	"fmt"

	"mercator-hq/switchboard/pkg/providers"
)

// defaultMaxTokens is sent when the request leaves MaxTokens unset; the
// Messages API requires the field.
const defaultMaxTokens = 4096

type messagesRequest struct {
	Model         string    `json:"model"`
	Messages      []message `json:"messages"`
	System        string    `json:"system,omitempty"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature,omitempty"`
	TopP          float64   `json:"top_p,omitempty"`
	Stream        bool      `json:"stream,omitempty"`
	Tools         []tool    `json:"tools,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentBlock is a "text" or "tool_use" block of a response.
type contentBlock struct {
	Type  string                 `json:"type"`
	Text  string                 `json:"text,omitempty"`
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`
}

type tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent is one event of the Messages API SSE stream. The delta field
// carries text for content_block_delta and the stop reason for
// message_delta.
type streamEvent struct {
	Type    string            `json:"type"`
	Message *messagesResponse `json:"message,omitempty"`
	Delta   *eventDelta       `json:"delta,omitempty"`
	Usage   *usage            `json:"usage,omitempty"`
	Error   *apiError         `json:"error,omitempty"`
}

type eventDelta struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// transformRequest builds the Messages API body for req against model.
// System messages are lifted into the top-level system field.
func transformRequest(req *providers.Request, model string) (*messagesRequest, error) {
	out := &messagesRequest{
		Model:         model,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop,
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = defaultMaxTokens
	}

	for _, msg := range req.Messages {
		if msg.Role == providers.RoleSystem {
			out.System = msg.Content
			continue
		}
		out.Messages = append(out.Messages, message{Role: msg.Role, Content: msg.Content})
	}
	if len(out.Messages) == 0 && req.Prompt != "" {
		out.Messages = []message{{Role: providers.RoleUser, Content: req.Prompt}}
	}

	for _, fn := range req.Functions {
		schema := fn.Parameters
		if schema == nil {
			schema = map[string]interface{}{"type": "object"}
		}
		out.Tools = append(out.Tools, tool{Name: fn.Name, Description: fn.Description, InputSchema: schema})
	}

	if err := validateMessageSequence(out.Messages); err != nil {
		return nil, err
	}
	return out, nil
}

// validateMessageSequence checks that messages start with the user and
// alternate between user and assistant.
func validateMessageSequence(messages []message) error {
	if len(messages) == 0 {
		return &providers.ValidationError{Field: "messages", Message: "at least one message or a prompt is required"}
	}
	if messages[0].Role != providers.RoleUser {
		return &providers.ValidationError{Field: "messages", Message: "first message must be from user"}
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].Role == messages[i-1].Role {
			return &providers.ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("messages must alternate between user and assistant, found consecutive %s messages at index %d", messages[i].Role, i),
			}
		}
	}
	return nil
}

// transformResponse converts a Messages API response.
func transformResponse(resp *messagesResponse) (*providers.Response, error) {
	result := &providers.Response{
		ID:           resp.ID,
		Model:        resp.Model,
		FinishReason: normalizeStopReason(resp.StopReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			result.Content += block.Text
		case "tool_use":
			args, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			result.FunctionCalls = append(result.FunctionCalls, providers.FunctionCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(args),
			})
		}
	}

	return result, nil
}

// streamState accumulates usage across events.
type streamState struct {
	inputTokens  int
	outputTokens int
}

func (s *streamState) usage() *providers.TokenUsage {
	return &providers.TokenUsage{
		PromptTokens:     s.inputTokens,
		CompletionTokens: s.outputTokens,
		TotalTokens:      s.inputTokens + s.outputTokens,
	}
}

// transformStreamEvent converts one event. ok is false for events that
// carry nothing for the caller.
func transformStreamEvent(event *streamEvent, state *streamState) (chunk providers.StreamChunk, ok bool, err error) {
	switch event.Type {
	case "message_start":
		if event.Message != nil {
			state.inputTokens = event.Message.Usage.InputTokens
			state.outputTokens = event.Message.Usage.OutputTokens
		}
		return chunk, false, nil

	case "content_block_delta":
		if event.Delta == nil || event.Delta.Text == "" {
			return chunk, false, nil
		}
		chunk.Delta = event.Delta.Text
		return chunk, true, nil

	case "message_delta":
		if event.Usage != nil {
			state.outputTokens = event.Usage.OutputTokens
		}
		if event.Delta != nil {
			chunk.FinishReason = normalizeStopReason(event.Delta.StopReason)
		}
		chunk.Usage = state.usage()
		return chunk, true, nil

	case "error":
		msg := "unknown stream error"
		if event.Error != nil {
			msg = event.Error.Type + ": " + event.Error.Message
		}
		return chunk, false, fmt.Errorf("%s", msg)

	case "content_block_start", "content_block_stop", "message_stop", "ping":
		return chunk, false, nil

	default:
		return chunk, false, fmt.Errorf("unknown stream event type: %s", event.Type)
	}
}

func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	case "tool_use":
		return providers.FinishReasonFunctionCall
	default:
		return reason
	}
}
