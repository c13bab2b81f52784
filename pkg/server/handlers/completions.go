package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/switchboard/pkg/server/middleware"
	"mercator-hq/switchboard/pkg/server/types"
)

// CompletionsHandler serves POST /v1/completions. With "stream": true the
// response is a text/event-stream.
type CompletionsHandler struct {
	service         Service
	maxRequestBytes int64
	logger          *slog.Logger
}

// NewCompletionsHandler creates a completions handler. maxRequestBytes
// bounds the request body (0 = DefaultMaxRequestBytes).
func NewCompletionsHandler(svc Service, maxRequestBytes int64) *CompletionsHandler {
	return &CompletionsHandler{
		service:         svc,
		maxRequestBytes: maxRequestBytes,
		logger:          slog.Default().With("component", "server.completions"),
	}
}

// ServeHTTP implements http.Handler.
func (h *CompletionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	body, err := ParseCompletionRequest(r, h.maxRequestBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid completion request",
			"request_id", requestID,
			"error", err,
		)
		h.writeError(w, r, err)
		return
	}

	if body.Stream {
		h.serveStream(w, r, body)
		return
	}

	start := time.Now()
	resp, err := h.service.GenerateCompletion(ctx, body.ToProviderRequest(requestID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "completion served",
		"request_id", requestID,
		"backend", resp.Backend,
		"cached", resp.Metadata["cache"] == "hit",
		"total_tokens", resp.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if err := WriteJSONResponse(w, http.StatusOK, types.FromProviderResponse(resp)); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response",
			"request_id", requestID,
			"error", err,
		)
	}
}

// serveStream relays chunks as Server-Sent Events. Errors before the
// stream opens are plain JSON errors; afterwards they become an error
// event and the stream ends without [DONE].
func (h *CompletionsHandler) serveStream(w http.ResponseWriter, r *http.Request, body *types.CompletionRequest) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	chunks, err := h.service.GenerateStreamingCompletion(ctx, body.ToProviderRequest(requestID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	var writeErr error
	for chunk := range chunks {
		// Keep draining after a write failure so the relay can finish.
		if writeErr != nil {
			continue
		}
		if chunk.Err != nil {
			h.logger.WarnContext(ctx, "stream failed",
				"request_id", requestID,
				"error", chunk.Err,
			)
			writeErr = WriteSSEError(w, HandleError(chunk.Err))
			if writeErr == nil {
				writeErr = chunk.Err
			}
			continue
		}
		writeErr = WriteSSEChunk(w, types.FromStreamChunk(chunk, requestID))
	}

	if writeErr == nil {
		writeErr = WriteSSEDone(w)
	}
	if writeErr != nil {
		h.logger.DebugContext(ctx, "stream ended early",
			"request_id", requestID,
			"error", writeErr,
		)
	}
}

func (h *CompletionsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errResp := HandleError(err)
	if errResp.Error.HTTPStatusCode() >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "completion failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
	if werr := WriteErrorResponse(w, errResp); werr != nil {
		h.logger.ErrorContext(r.Context(), "failed to write error response", "error", werr)
	}
}
