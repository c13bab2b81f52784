package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HTTPProvider is the shared transport for HTTP-based adapters. It owns a
// pooled http.Client and maps upstream status codes onto the typed errors
// of this package.
//
// HTTPProvider performs exactly one HTTP exchange per call. Retries and
// failover are the orchestrator's job, so a failing backend is reported
// immediately and the next attempt can go elsewhere.
type HTTPProvider struct {
	*Base

	client *http.Client
	logger *slog.Logger
}

// NewHTTPProvider creates the HTTP transport for config.
func NewHTTPProvider(config BackendConfig, opts ...BaseOption) *HTTPProvider {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		Base: NewBase(config, opts...),
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "provider", "backend", config.ID),
	}
}

// Client returns the underlying HTTP client.
func (p *HTTPProvider) Client() *http.Client {
	return p.client
}

// Logger returns the backend-scoped logger.
func (p *HTTPProvider) Logger() *slog.Logger {
	return p.logger
}

// DoRequest sends one HTTP request. A 2xx response is returned to the caller,
// who must close its body; every other outcome is returned as a typed error.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &ConfigError{Backend: p.ID(), Field: "base_url", Message: err.Error()}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	p.logger.Debug("sending request to backend", "method", method, "url", url)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, &BackendError{
				Backend: p.ID(),
				Op:      opFromMethod(method),
				Cause:   &TimeoutError{Backend: p.ID(), Timeout: p.config.Timeout},
			}
		}
		return nil, NewBackendError(p.ID(), opFromMethod(method), err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	return nil, p.statusError(method, resp, string(errorBody))
}

// statusError maps a non-2xx response onto a BackendError with a typed cause.
func (p *HTTPProvider) statusError(method string, resp *http.Response, body string) error {
	be := &BackendError{
		Backend:    p.ID(),
		Op:         opFromMethod(method),
		StatusCode: resp.StatusCode,
		Message:    body,
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		be.Cause = &AuthError{Backend: p.ID(), Message: body}
	case http.StatusTooManyRequests:
		be.Cause = &RateLimitError{
			Backend:    p.ID(),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    body,
		}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		be.Cause = &TimeoutError{Backend: p.ID(), Timeout: p.config.Timeout}
	}

	p.logger.Warn("backend returned error status", "status", resp.StatusCode)
	return be
}

// DoJSONRequest sends reqBody as JSON and decodes the response into respBody.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody, respBody interface{}, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return &ValidationError{Field: "request", Message: fmt.Sprintf("failed to marshal request: %v", err)}
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewBackendError(p.ID(), opFromMethod(method), &ParseError{
			Backend: p.ID(),
			Cause:   fmt.Errorf("failed to read response: %w", err),
		})
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return NewBackendError(p.ID(), opFromMethod(method), &ParseError{
				Backend:     p.ID(),
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			})
		}
	}
	return nil
}

// Probe issues a lightweight GET against url and discards the body.
func (p *HTTPProvider) Probe(ctx context.Context, url string, headers map[string]string) error {
	resp, err := p.DoRequest(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	p.logger.Debug("backend closed")
	return nil
}

func opFromMethod(method string) string {
	if method == http.MethodGet {
		return "health"
	}
	return "completion"
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// parseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
