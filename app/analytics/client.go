package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	maxRetries = 3
	memoTTL    = 5 * time.Minute
)

type viewsResponse struct {
	Views int64 `json:"views"`
}

// Client reads per-slug page view counts from the analytics service. View
// counts are decoration, not content: lookups are memoized in process so
// page loads do not hammer the upstream, and 429 responses are retried
// with backoff.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	userAgent  string
	retryDelay time.Duration

	mu   sync.RWMutex
	memo map[string]memoEntry
}

type memoEntry struct {
	views     int64
	fetchedAt time.Time
}

// NewClient builds an analytics client. An empty baseURL disables the
// integration: Views reports zero for every slug.
func NewClient(baseURL, token string, httpClient *http.Client, userAgent string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		userAgent:  userAgent,
		retryDelay: time.Second,
		memo:       make(map[string]memoEntry),
	}
}

// Enabled reports whether an analytics backend is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Views returns the view count for a slug.
func (c *Client) Views(ctx context.Context, slug string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	c.mu.RLock()
	entry, ok := c.memo[slug]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < memoTTL {
		return entry.views, nil
	}

	views, err := c.fetchViews(ctx, slug)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.memo[slug] = memoEntry{views: views, fetchedAt: time.Now()}
	c.mu.Unlock()

	return views, nil
}

func (c *Client) fetchViews(ctx context.Context, slug string) (int64, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			slog.Warn("Retrying analytics lookup", "slug", slug, "attempt", attempt, "delay", delay.String(), "error", lastErr)

			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		views, retryable, err := c.doFetch(ctx, slug)
		if err == nil {
			return views, nil
		}
		if !retryable {
			return 0, err
		}
		lastErr = err
	}

	return 0, fmt.Errorf("analytics lookup failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) doFetch(ctx context.Context, slug string) (int64, bool, error) {
	lookupURL := fmt.Sprintf("%s/views?slug=%s", c.baseURL, url.QueryEscape(slug))

	req, err := http.NewRequestWithContext(ctx, "GET", lookupURL, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, true, fmt.Errorf("failed to fetch views: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return 0, retryable, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, true, fmt.Errorf("failed to read response body: %w", err)
	}

	var result viewsResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, false, fmt.Errorf("failed to parse views response: %w", err)
	}

	return result.Views, false, nil
}
