package opendata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/scolmap/scolmap/metrics"
)

// BulkClient downloads bulk CSV exports. Bulk files are a handful of large
// downloads rather than a request stream, so they carry a long timeout and
// no limiter.
type BulkClient struct {
	httpClient *http.Client
}

// NewBulkClient creates a bulk CSV downloader.
func NewBulkClient(timeout time.Duration) *BulkClient {
	return &BulkClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    5,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: timeout,
		},
	}
}

// Rows downloads one CSV export and decodes it with the source's options.
func (c *BulkClient) Rows(ctx context.Context, rawURL string, opts RowOptions) (*RowResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	metrics.HTTPRequests.WithLabelValues("bulk").Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", opts.Source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: HTTP %d: %s", opts.Source, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	result, err := DecodeRows(resp.Body, opts)
	if err != nil {
		return nil, err
	}
	return result, nil
}
