// Package httpclient builds the HTTP clients used by source adapters.
// News wires gate on browser-looking requests, so every client carries a
// browser user-agent profile. Clients are constructed once and injected
// into adapters - no process-wide shared client is mutated.
package httpclient

import (
	"net/http"
	"time"
)

// browserHeaders mimics a desktop Chrome profile. Several wires (Accesswire,
// GlobeNewswire, Finviz) reject requests without them.
var browserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

// headerTransport injects the configured user agent and browser headers on
// every request without mutating the caller's request headers elsewhere.
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	for k, v := range browserHeaders {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}

// NewBrowserClient creates an HTTP client with a browser user-agent profile
// and a per-request timeout.
func NewBrowserClient(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base:      http.DefaultTransport,
			userAgent: userAgent,
		},
	}
}

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
