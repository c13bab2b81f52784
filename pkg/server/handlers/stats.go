package handlers

import (
	"log/slog"
	"net/http"
)

// StatsHandler serves GET /v1/stats.
type StatsHandler struct {
	service Service
}

// NewStatsHandler creates a service statistics handler.
func NewStatsHandler(svc Service) *StatsHandler {
	return &StatsHandler{service: svc}
}

// ServeHTTP implements http.Handler.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSONResponse(w, http.StatusOK, h.service.GetServiceStats()); err != nil {
		slog.ErrorContext(r.Context(), "failed to write stats response", "error", err)
	}
}

// ProviderStatsHandler serves GET /v1/stats/providers.
type ProviderStatsHandler struct {
	service Service
}

// NewProviderStatsHandler creates a per-backend statistics handler.
func NewProviderStatsHandler(svc Service) *ProviderStatsHandler {
	return &ProviderStatsHandler{service: svc}
}

// ServeHTTP implements http.Handler.
func (h *ProviderStatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSONResponse(w, http.StatusOK, h.service.GetProviderStats()); err != nil {
		slog.ErrorContext(r.Context(), "failed to write provider stats response", "error", err)
	}
}
