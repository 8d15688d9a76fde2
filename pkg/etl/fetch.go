package etl

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FetcherConfig configures the CSV fetcher.
type FetcherConfig struct {
	Timeout time.Duration // Default: 30 seconds
}

// Fetcher downloads transaction CSV exports over HTTP, such as a published
// Google Sheets CSV link.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a new Fetcher.
func NewFetcher(config FetcherConfig) *Fetcher {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads a CSV export. The caller must close the returned body.
func (f *Fetcher) Fetch(rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/csv")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseFetchError(resp)
	}

	return resp.Body, nil
}

// parseFetchError turns a non-200 response into an error carrying the
// response text.
func parseFetchError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return fmt.Errorf("CSV fetch failed (status %d)", resp.StatusCode)
	}

	return fmt.Errorf("CSV fetch failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
