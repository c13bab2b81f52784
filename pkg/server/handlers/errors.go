package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/proxy"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/server/types"
)

// HandleError converts gateway errors to API error responses.
//
// Client mistakes map to 400, gateway saturation (nothing eligible, every
// attempt failed, stopped, overloaded) to 503, upstream 429 to 429,
// deadlines to 504 and other upstream failures to 502.
//
// Example usage:
//
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var valErr *providers.ValidationError
	if errors.As(err, &valErr) {
		return types.NewInvalidRequestError(valErr.Message, valErr.Field, types.CodeInvalidValue)
	}

	var capErr *routing.CapabilityError
	if errors.As(err, &capErr) {
		return types.NewInvalidRequestError(capErr.Error(), "", types.CodeCapabilityUnsupported)
	}

	switch {
	case errors.Is(err, proxy.ErrServiceStopped):
		return types.NewErrorResponse(err.Error(), types.ErrorTypeServiceUnavailable, "", types.CodeServiceStopped)
	case errors.Is(err, proxy.ErrOverloaded):
		return types.NewErrorResponse(err.Error(), types.ErrorTypeServiceUnavailable, "", types.CodeOverloaded)
	}

	var exhausted *proxy.RetriesExhaustedError
	if errors.As(err, &exhausted) {
		return types.NewErrorResponse(
			fmt.Sprintf("All %d backend attempts failed", exhausted.Attempts),
			types.ErrorTypeServiceUnavailable,
			"",
			types.CodeRetriesExhausted,
		)
	}

	var noBackend *routing.NoBackendAvailableError
	if errors.As(err, &noBackend) {
		return types.NewServiceUnavailableError(noBackend.Error())
	}

	if errors.Is(err, context.Canceled) {
		return types.NewInvalidRequestError("Request was canceled by the client", "", "request_canceled")
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded) {
		return types.NewGatewayTimeoutError("Backend request timed out")
	}

	var rateLimitErr *providers.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return types.NewRateLimitError(
			fmt.Sprintf("Backend rate limit exceeded (%s)", rateLimitErr.Backend),
		)
	}

	var authErr *providers.AuthError
	if errors.As(err, &authErr) {
		return types.NewErrorResponse(
			fmt.Sprintf("Backend authentication failed (%s)", authErr.Backend),
			types.ErrorTypeBadGateway,
			"",
			"authentication_failed",
		)
	}

	var parseErr *providers.ParseError
	if errors.As(err, &parseErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Failed to parse backend response (%s)", parseErr.Backend),
		)
	}

	var backendErr *providers.BackendError
	if errors.As(err, &backendErr) {
		return handleBackendError(backendErr)
	}

	return types.NewServerError(
		"An internal error occurred. Please try again later.",
	)
}

// handleBackendError maps an upstream status code to an error response.
func handleBackendError(err *providers.BackendError) *types.ErrorResponse {
	switch {
	case err.StatusCode == http.StatusNotFound:
		return types.NewInvalidRequestError(
			fmt.Sprintf("Model not found (%s)", err.Backend),
			"model",
			types.CodeModelNotFound,
		)
	case err.StatusCode == http.StatusBadRequest:
		return types.NewInvalidRequestError(
			fmt.Sprintf("Invalid request to backend (%s): %s", err.Backend, err.Message),
			"",
			types.CodeInvalidValue,
		)
	default:
		return types.NewBadGatewayError(err.Error())
	}
}

// WriteJSONResponse writes data as JSON with the given status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes errResp with the status code of its type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}
