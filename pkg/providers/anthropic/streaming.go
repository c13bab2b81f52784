package anthropic

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mercator-hq/switchboard/pkg/providers"
)

// streamReader reads the Messages API Server-Sent Events stream.
type streamReader struct {
	backend string
	body    io.ReadCloser
	scanner *bufio.Scanner
	state   streamState
}

func newStreamReader(backend string, body io.ReadCloser) *streamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &streamReader{backend: backend, body: body, scanner: scanner}
}

// Next returns the next chunk for the caller, or io.EOF after message_stop
// or the end of the body.
func (s *streamReader) Next() (providers.StreamChunk, error) {
	for {
		event, err := s.readEvent()
		if err != nil {
			return providers.StreamChunk{}, err
		}
		if event.Type == "message_stop" {
			return providers.StreamChunk{}, io.EOF
		}

		chunk, ok, err := transformStreamEvent(event, &s.state)
		if err != nil {
			return providers.StreamChunk{}, &providers.StreamError{
				Backend: s.backend,
				Message: "backend reported stream failure",
				Cause:   err,
			}
		}
		if ok {
			return chunk, nil
		}
	}
}

// Usage returns the token usage accumulated so far.
func (s *streamReader) Usage() *providers.TokenUsage {
	return s.state.usage()
}

// readEvent reads one complete SSE event.
func (s *streamReader) readEvent() (*streamEvent, error) {
	var eventType string
	var dataLines []string

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if eventType != "" || len(dataLines) > 0 {
				break
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, &providers.StreamError{Backend: s.backend, Message: "failed to read stream", Cause: err}
	}
	if eventType == "" && len(dataLines) == 0 {
		return nil, io.EOF
	}

	var event streamEvent
	if data := strings.Join(dataLines, "\n"); data != "" {
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, &providers.ParseError{
				Backend:     s.backend,
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream event: %w", err),
			}
		}
	}
	if event.Type == "" {
		event.Type = eventType
	}
	return &event, nil
}

func (s *streamReader) Close() error {
	return s.body.Close()
}
