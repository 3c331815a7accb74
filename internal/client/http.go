package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/teamarete/TBBAS/internal/models"
)

// errNotFound marks a division the feed does not publish
var errNotFound = errors.New("not found")

// HTTPClient reads ranking lists from the scraper feed service
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithRetryDelay sets the base backoff between attempts
func WithRetryDelay(d time.Duration) Option {
	return func(c *HTTPClient) { c.retryDelay = d }
}

// NewHTTPClient creates a feed client limited to requestsPerSecond
func NewHTTPClient(baseURL string, timeout time.Duration, requestsPerSecond float64, maxRetries int, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		maxRetries: maxRetries,
		retryDelay: 1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches every division list of source. A division the feed does not
// publish is skipped; any other failure makes the whole source unavailable.
func (c *HTTPClient) Load(ctx context.Context, source models.Source) (SourceLists, error) {
	lists := make(SourceLists)
	for _, div := range models.AllDivisions() {
		rows, err := c.FetchDivision(ctx, source, div)
		if errors.Is(err, errNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, source, err)
		}
		lists[div] = rows
	}
	return lists, nil
}

// FetchDivision fetches one source's list for one division
func (c *HTTPClient) FetchDivision(ctx context.Context, source models.Source, division models.Division) ([]models.RawRecord, error) {
	path := fmt.Sprintf("%s/%s.json", source, division)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []models.RawRecord
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return ValidRecords(source, division, rows), nil
}

// get performs a GET request with retry logic and rate limiting
func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying feed request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.do(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			log.Debug().
				Str("url", url).
				Int("size", len(body)).
				Msg("Feed request successful")
			return body, nil

		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", url, errNotFound)

		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("feed returned retryable status %d", status)
			log.Warn().
				Str("url", url).
				Int("status", status).
				Int("attempt", attempt+1).
				Msg("Received retryable error, will retry")

		default:
			return nil, fmt.Errorf("feed returned status %d: %s", status, string(body))
		}
	}

	return nil, lastErr
}

func (c *HTTPClient) do(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tbbas-rankings/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
