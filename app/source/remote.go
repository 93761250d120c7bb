package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mpetrie/pressmill/app/content"
)

const (
	remotePageSize   = 100
	remoteMaxRetries = 3

	// Upper bound on cursor walks, in case a misbehaving API keeps
	// reporting more pages.
	remoteMaxPages = 1000
)

// remotePage is one page of the CMS listing API.
type remotePage struct {
	Items      []remoteItem `json:"items"`
	NextCursor string       `json:"next_cursor"`
	HasMore    bool         `json:"has_more"`
}

type remoteItem struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Markdown       string `json:"markdown"`
	Date           string `json:"date"`
	LastUpdated    string `json:"last_updated"`
	OpenGraphImage string `json:"open_graph_image"`
	ExternalURL    string `json:"external_url"`

	// An absent published field means the server already filtered; only
	// an explicit false marks a draft.
	Published *bool `json:"published"`
}

func (i remoteItem) isDraft() bool {
	return i.Published != nil && !*i.Published
}

// Remote loads content items from a cursor-paginated CMS listing endpoint,
// walking pages sequentially until the API reports no more. The listing is
// requested published-only and date-sorted; draft items a server returns
// anyway are dropped. Transient
// failures (network errors, 429, 5xx) are retried per page with exponential
// backoff before the walk as a whole fails.
type Remote struct {
	url        string
	token      string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	retryDelay time.Duration
}

var _ content.Source = (*Remote)(nil)

func NewRemote(apiURL, token string, timeout time.Duration, httpClient *http.Client, userAgent string) *Remote {
	return &Remote{
		url:        apiURL,
		token:      token,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
		retryDelay: time.Second,
	}
}

func (r *Remote) Load(ctx context.Context) ([]content.RawItem, error) {
	var items []content.RawItem
	cursor := ""

	for page := 0; page < remoteMaxPages; page++ {
		result, err := r.fetchPage(ctx, cursor)
		if err != nil {
			return nil, err
		}

		for _, remote := range result.Items {
			if remote.isDraft() {
				slog.Warn("Skipping unpublished remote item", "slug", remote.Slug)
				continue
			}

			items = append(items, content.RawItem{
				ID:            remote.ID,
				SlugCandidate: remote.Slug,
				FileName:      remote.Slug,
				Markdown:      remote.Markdown,
				Index:         len(items),
				Meta: content.RawMeta{
					Title:       remote.Title,
					Subtitle:    remote.Subtitle,
					Date:        remote.Date,
					LastUpdated: remote.LastUpdated,
					OGImage:     remote.OpenGraphImage,
					ExternalURL: remote.ExternalURL,
				},
			})
		}

		if !result.HasMore || result.NextCursor == "" {
			return items, nil
		}
		cursor = result.NextCursor
	}

	return nil, fmt.Errorf("remote source exceeded %d pages, aborting walk", remoteMaxPages)
}

func (r *Remote) fetchPage(ctx context.Context, cursor string) (*remotePage, error) {
	var lastErr error

	for attempt := 0; attempt < remoteMaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.retryDelay * time.Duration(1<<uint(attempt-1))
			slog.Warn("Retrying remote page fetch", "attempt", attempt, "delay", delay.String(), "error", lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, retryable, err := r.doFetch(ctx, cursor)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("remote page fetch failed after %d attempts: %w", remoteMaxRetries, lastErr)
}

func (r *Remote) doFetch(ctx context.Context, cursor string) (*remotePage, bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pageURL, err := r.pageURL(cursor)
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	var page remotePage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, fmt.Errorf("failed to parse page response: %w", err)
	}

	return &page, false, nil
}

func (r *Remote) pageURL(cursor string) (string, error) {
	u, err := url.Parse(r.url)
	if err != nil {
		return "", fmt.Errorf("invalid source URL '%s': %w", r.url, err)
	}

	query := u.Query()
	query.Set("page_size", strconv.Itoa(remotePageSize))
	query.Set("published", "true")
	query.Set("sort", "-date")
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
