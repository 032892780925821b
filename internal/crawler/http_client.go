package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// maxBodySize is the hard cap on response body size. Exceeding it is a
// fetch failure, never a silent truncation.
const maxBodySize = 10 << 20 // 10 MiB

// HTTPClient is the transport-level fetch capability. It succeeds only on a
// 2xx status; any other outcome surfaces as a classified error so callers
// can distinguish a missing resource from every other failure.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// Response carries a fetched body along with basic timing metrics.
type Response struct {
	StatusCode   int
	Body         []byte
	TTFB         time.Duration
	DownloadTime time.Duration
}

// NewHTTPClient creates a fetch client sending the given User-Agent on
// every request.
func NewHTTPClient(userAgent string, timeout time.Duration) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPClient{
		client:    client,
		userAgent: userAgent,
	}
}

// Get performs an HTTP GET against rawURL.
//
// A 404 response returns ErrNotFound; any other non-2xx status or transport
// error returns ErrFetchFailed; a body over the size cap returns
// ErrResponseTooLarge. Time to first byte and total download time are
// measured via httptrace.
func (h *HTTPClient) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedURL, rawURL, err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	var firstByte time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByte = time.Now()
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetchFailed, rawURL, resp.StatusCode)
	}

	// Read one byte past the cap so an oversized body is detected rather
	// than truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %v", ErrFetchFailed, rawURL, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: %s", ErrResponseTooLarge, rawURL)
	}

	r := &Response{
		StatusCode:   resp.StatusCode,
		Body:         body,
		DownloadTime: time.Since(start),
	}
	if !firstByte.IsZero() {
		r.TTFB = firstByte.Sub(start)
	}
	return r, nil
}

// Close releases idle connections held by the underlying transport.
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
