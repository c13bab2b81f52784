package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/switchboard/pkg/server/types"
	"mercator-hq/switchboard/pkg/usage"
)

// DefaultUsageLimit caps GET /v1/usage when no limit is given.
const DefaultUsageLimit = 100

// UsageList is returned by GET /v1/usage.
type UsageList struct {
	Object string          `json:"object"`
	Data   []*usage.Record `json:"data"`
}

// UsageSummary is returned by GET /v1/usage/summary.
type UsageSummary struct {
	Object string                 `json:"object"`
	Data   []usage.BackendSummary `json:"data"`
}

// UsageHandler serves the usage ledger. A nil store answers 404.
//
// Query parameters (all optional):
//   - request_id, backend, status: exact matches
//   - since, until: RFC 3339 timestamps
//   - limit: maximum records for the list route
type UsageHandler struct {
	store usage.Store
}

// NewUsageHandler creates a usage ledger handler.
func NewUsageHandler(store usage.Store) *UsageHandler {
	return &UsageHandler{store: store}
}

// List serves GET /v1/usage.
func (h *UsageHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultUsageLimit
	}

	records, err := h.store.Query(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if records == nil {
		records = []*usage.Record{}
	}

	if err := WriteJSONResponse(w, http.StatusOK, UsageList{Object: types.ObjectList, Data: records}); err != nil {
		slog.ErrorContext(r.Context(), "failed to write usage response", "error", err)
	}
}

// Summary serves GET /v1/usage/summary.
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	summaries, err := h.store.Summary(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []usage.BackendSummary{}
	}

	if err := WriteJSONResponse(w, http.StatusOK, UsageSummary{Object: types.ObjectList, Data: summaries}); err != nil {
		slog.ErrorContext(r.Context(), "failed to write usage summary response", "error", err)
	}
}

// filter parses the query string. It writes the error response itself and
// reports false when the request cannot proceed.
func (h *UsageHandler) filter(w http.ResponseWriter, r *http.Request) (usage.Filter, bool) {
	if h.store == nil {
		_ = WriteErrorResponse(w, types.NewErrorResponse(
			"usage ledger is disabled",
			types.ErrorTypeNotFound,
			"",
			"usage_disabled",
		))
		return usage.Filter{}, false
	}

	q := r.URL.Query()
	filter := usage.Filter{
		RequestID: q.Get("request_id"),
		Backend:   q.Get("backend"),
		Status:    usage.Status(q.Get("status")),
	}

	var err error
	if filter.Since, err = parseTime(q.Get("since")); err != nil {
		return filter, h.badParam(w, "since", err)
	}
	if filter.Until, err = parseTime(q.Get("until")); err != nil {
		return filter, h.badParam(w, "until", err)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, h.badParam(w, "limit", fmt.Errorf("must be a non-negative integer"))
		}
		filter.Limit = n
	}
	switch filter.Status {
	case "", usage.StatusSuccess, usage.StatusFailure:
	default:
		return filter, h.badParam(w, "status", fmt.Errorf("must be %q or %q", usage.StatusSuccess, usage.StatusFailure))
	}
	return filter, true
}

func (h *UsageHandler) badParam(w http.ResponseWriter, param string, err error) bool {
	_ = WriteErrorResponse(w, types.NewInvalidRequestError(
		fmt.Sprintf("invalid %s: %v", param, err),
		param,
		types.CodeInvalidValue,
	))
	return false
}

func (h *UsageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "usage query failed", "error", err)
	_ = WriteErrorResponse(w, types.NewServerError("failed to query usage ledger"))
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
