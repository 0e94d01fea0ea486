package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stockroom/pkg/idx"
)

// RequestIDHeader carries the per-request id between console and API.
const RequestIDHeader = "X-Request-ID"

// Transport is the client-side twin of HTTPMiddleware: it stamps each outgoing
// request with a request id and logs the exchange at debug level.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = FromContext(req.Context())
	}

	reqID := idx.New()
	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, reqID.String())

	start := time.Now()
	resp, err := base.RoundTrip(req)
	attrs := []any{
		"req_id", reqID.String(),
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.Debug("api_request_failed", append(attrs, "error", err)...)
		return nil, err
	}
	logger.Debug("api_request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
