// Package connectors implements clients for the external construction
// platforms gcPanel syncs from. Each connector speaks its provider's REST
// API and returns raw JSON pages; normalization into records happens in the
// import service.
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Connector pulls items changed since a given time from one provider.
type Connector interface {
	Name() string
	// Enabled reports whether credentials are configured.
	Enabled() bool
	// Fetch returns raw JSON documents (one per API page or collection).
	Fetch(ctx context.Context, since time.Time) ([]json.RawMessage, error)
}

// FetchConfig bounds a connector's API usage.
type FetchConfig struct {
	RateLimit      rate.Limit
	BurstSize      int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	MaxRetries     int
	Timeout        time.Duration
}

// DefaultFetchConfig suits the per-tenant quotas the construction platforms
// document (a few requests per second, 429 on burst).
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		RateLimit:      4,
		BurstSize:      8,
		BackoffInitial: 1 * time.Second,
		BackoffMax:     30 * time.Second,
		MaxRetries:     3,
		Timeout:        30 * time.Second,
	}
}

// apiClient is the shared rate-limited, retrying HTTP layer under every
// connector.
type apiClient struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	cfg     FetchConfig
}

func newAPIClient(name string, cfg FetchConfig, base *http.Client) *apiClient {
	if base == nil {
		base = &http.Client{Timeout: cfg.Timeout}
	}
	return &apiClient{
		name:    name,
		http:    base,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.BurstSize),
		cfg:     cfg,
	}
}

// getJSON performs a rate-limited GET with bounded exponential backoff on
// 429 and 5xx responses.
func (c *apiClient) getJSON(ctx context.Context, url string, header http.Header) (json.RawMessage, error) {
	backoff := c.cfg.BackoffInitial

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode < 400 {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return nil, fmt.Errorf("read response: %w", readErr)
			}
			return json.RawMessage(body), nil
		}

		var status int
		if err == nil {
			status = resp.StatusCode
			resp.Body.Close()
		}

		retryable := err != nil || status == http.StatusTooManyRequests || status >= 500
		if !retryable {
			return nil, fmt.Errorf("%s: unexpected status %d for %s", c.name, status, url)
		}
		if attempt >= c.cfg.MaxRetries {
			if err != nil {
				return nil, fmt.Errorf("%s: request failed after %d retries: %w", c.name, attempt, err)
			}
			return nil, fmt.Errorf("%s: status %d after %d retries for %s", c.name, status, attempt, url)
		}

		log.Printf("[connector] %s retrying url=%s attempt=%d backoff=%s", c.name, url, attempt+1, backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.BackoffMax {
			backoff = c.cfg.BackoffMax
		}
	}
}
