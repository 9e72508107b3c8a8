package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/scolmap/scolmap/metrics"
)

const (
	// pageSize is the records API maximum page size.
	pageSize = 100

	userAgent = "scolmap/1.0 (+https://github.com/scolmap/scolmap)"
)

// Client fetches paginated records from an Opendatasoft catalog.
// A single Client (and its rate limiter) is shared by every fetcher that
// talks to the same catalog, so the combined request rate stays inside the
// API's budget no matter how many fetchers run concurrently.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a records API client. requestsPerSecond caps the
// sustained request rate; requests are paced, never burst.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// recordsPage mirrors the v2 records API response envelope.
type recordsPage struct {
	TotalCount int `json:"total_count"`
	Records    []struct {
		Record struct {
			Fields map[string]any `json:"fields"`
		} `json:"record"`
	} `json:"records"`
}

// FetchAll retrieves every record of a dataset matching the optional where
// filter. Pagination continues until an empty page is returned or the
// reported total count is reached. Any page failure aborts the whole fetch;
// the caller's cache artifact is only replaced on success.
func (c *Client) FetchAll(ctx context.Context, dataset, where string) ([]Record, error) {
	var all []Record
	offset := 0

	for {
		page, err := c.fetchPage(ctx, dataset, where, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch %s offset %d: %w", dataset, offset, err)
		}

		if len(page.Records) == 0 {
			break
		}

		for _, r := range page.Records {
			all = append(all, Record{Fields: r.Record.Fields})
		}

		if len(all) >= page.TotalCount {
			break
		}
		offset += pageSize
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, dataset, where string, offset int) (*recordsPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/records", c.baseURL, dataset)
	params := url.Values{}
	params.Set("limit", fmt.Sprint(pageSize))
	params.Set("offset", fmt.Sprint(offset))
	if where != "" {
		params.Set("where", where)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	metrics.HTTPRequests.WithLabelValues("records").Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var page recordsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &page, nil
}
