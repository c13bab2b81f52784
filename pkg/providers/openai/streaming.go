package openai

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mercator-hq/switchboard/pkg/providers"
)

// streamReader reads OpenAI's Server-Sent Events stream.
type streamReader struct {
	backend string
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newStreamReader(backend string, body io.ReadCloser) *streamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &streamReader{backend: backend, body: body, scanner: scanner}
}

// Next returns the next chunk, or io.EOF once "[DONE]" or the end of the
// body is reached.
func (s *streamReader) Next() (providers.StreamChunk, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return providers.StreamChunk{}, io.EOF
		}

		var chunk streamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return providers.StreamChunk{}, &providers.ParseError{
				Backend:     s.backend,
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream chunk: %w", err),
			}
		}
		return transformStreamChunk(&chunk), nil
	}

	if err := s.scanner.Err(); err != nil {
		return providers.StreamChunk{}, &providers.StreamError{
			Backend: s.backend,
			Message: "failed to read stream",
			Cause:   err,
		}
	}
	return providers.StreamChunk{}, io.EOF
}

func (s *streamReader) Close() error {
	return s.body.Close()
}
