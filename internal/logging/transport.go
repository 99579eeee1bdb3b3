package logging

import (
	"net/http"
	"time"
)

// RunIDHeader carries the run ID on outgoing requests.
const RunIDHeader = "X-Request-ID"

type transport struct {
	next http.RoundTripper
}

// NewTransport wraps next so every request is tagged with the run ID from
// its context and logged at debug level once the response headers arrive.
// A nil next uses http.DefaultTransport.
func NewTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{next: next}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if id := GetRunID(ctx); id != "" && req.Header.Get(RunIDHeader) == "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(ctx)
		req.Header.Set(RunIDHeader, id)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		LoggerFromContext(ctx).Debug("http_request",
			"method", req.Method,
			"url", req.URL.String(),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	LoggerFromContext(ctx).Debug("http_request",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}
