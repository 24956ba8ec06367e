package retriever

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxBodyBytes        = 2 << 20
	userAgent           = "course-assistant/1.0 (+https://www.academianacionaldeartes.cl)"
)

// Fetcher returns the raw markup of a reference document.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// HTTPFetcher fetches documents over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch GETs locator and returns at most 2 MiB of its body. Non-2xx
// responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("failed to fetch %s: status %d", locator, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", locator, err)
	}
	return body, nil
}
