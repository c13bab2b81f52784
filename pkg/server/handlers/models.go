package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/switchboard/pkg/proxy"
	"mercator-hq/switchboard/pkg/server/types"
)

// ModelsHandler serves GET /v1/models.
type ModelsHandler struct {
	service Service
}

// NewModelsHandler creates a model listing handler.
func NewModelsHandler(svc Service) *ModelsHandler {
	return &ModelsHandler{service: svc}
}

// ServeHTTP implements http.Handler.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infos := h.service.ListAvailableModels()

	list := types.ModelList{
		Object: types.ObjectList,
		Data:   make([]types.Model, 0, len(infos)),
	}
	for _, info := range infos {
		list.Data = append(list.Data, toModel(info))
	}

	if err := WriteJSONResponse(w, http.StatusOK, list); err != nil {
		slog.ErrorContext(r.Context(), "failed to write models response", "error", err)
	}
}

func toModel(info proxy.ModelInfo) types.Model {
	caps := make([]string, len(info.Capabilities))
	for i, c := range info.Capabilities {
		caps[i] = string(c)
	}
	return types.Model{
		ID:                      info.ID,
		Object:                  types.ObjectModel,
		Family:                  string(info.Family),
		Model:                   info.Model,
		Capabilities:            caps,
		MaxTokens:               info.MaxTokens,
		ContextWindow:           info.ContextWindow,
		CostPerToken:            info.CostPerToken,
		SupportsStreaming:       info.SupportsStreaming,
		SupportsFunctionCalling: info.SupportsFunctionCalling,
		Available:               info.Available,
	}
}
