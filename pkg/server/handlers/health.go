package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/switchboard/pkg/proxy"
)

// HealthHandler serves GET /health. It probes every backend and answers
// 200 while at least one is available, 503 otherwise.
type HealthHandler struct {
	service Service
}

// NewHealthHandler creates a backend health handler.
func NewHealthHandler(svc Service) *HealthHandler {
	return &HealthHandler{service: svc}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := h.service.HealthCheck(r.Context())

	statusCode := http.StatusOK
	switch report.Status {
	case proxy.StatusHealthy, proxy.StatusDegraded:
	default:
		statusCode = http.StatusServiceUnavailable
	}

	if err := WriteJSONResponse(w, statusCode, report); err != nil {
		slog.ErrorContext(r.Context(), "failed to write health response", "error", err)
	}
}
