// Package netx provides the network reachability oracle consulted before
// every remote operation.
package netx

import (
	"context"
	"net/http"
	"time"
)

// Checker reports whether the network is connected and the internet is
// actually reachable. Implementations never return an error: any failure
// means "not available".
type Checker interface {
	Available(ctx context.Context) bool
}

// DefaultProbeURL is a generate-204 style endpoint: cheap, uncached and
// returning no body.
const DefaultProbeURL = "https://clients3.google.com/generate_204"

// HTTPChecker probes a URL with a short HEAD request.
type HTTPChecker struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

func NewHTTPChecker(url string, timeout time.Duration) *HTTPChecker {
	if url == "" {
		url = DefaultProbeURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPChecker{url: url, timeout: timeout, client: &http.Client{Timeout: timeout}}
}

func (c *HTTPChecker) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}

// StaticChecker is a fixed-answer checker for tests.
type StaticChecker bool

func (s StaticChecker) Available(context.Context) bool { return bool(s) }
