package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mpetrie/pressmill/app/content"
)

// ExtractExternalTask fills in descriptions for externally hosted posts
// by fetching their pages and running readability extraction over them.
// Only entities still missing a description are touched.
type ExtractExternalTask struct {
	Task
	Config     *content.Config
	httpClient *http.Client
	extractor  *content.Extractor
	cache      *content.Cache
	userAgent  string
}

func NewExtractExternalTask(contentType string, config *content.Config, httpClient *http.Client, extractor *content.Extractor, cache *content.Cache, userAgent string) *ExtractExternalTask {
	return &ExtractExternalTask{
		Task:       NewTask(TaskTypeExtractExternal, contentType),
		Config:     config,
		httpClient: httpClient,
		extractor:  extractor,
		cache:      cache,
		userAgent:  userAgent,
	}
}

func (t *ExtractExternalTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.ExtractExternal {
		slog.Debug("External extraction disabled for content type", "content_type", t.ContentType)
		return nil
	}

	entities, err := t.cache.GetAll(ctx, t.ContentType)
	if err != nil {
		return fmt.Errorf("failed to load content for extraction: %w", err)
	}

	var pending []content.Entity
	for _, entity := range entities {
		if entity.IsExternal() && entity.Description == "" {
			pending = append(pending, entity)
		}
	}

	if len(pending) == 0 {
		slog.Debug("No external entities need extraction", "content_type", t.ContentType)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, entity := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.extractForEntity(ctx, entity); err != nil {
			slog.Error("Failed to extract external description", "slug", entity.Slug, "url", entity.ExternalURL, "error", err)
			errorCount++
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"content_type", t.ContentType,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractExternalTask) extractForEntity(ctx context.Context, entity content.Entity) error {
	data, err := t.fetchPage(ctx, entity.ExternalURL)
	if err != nil {
		return fmt.Errorf("failed to fetch external page: %w", err)
	}

	description, err := t.extractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract description: %w", err)
	}

	err = t.cache.UpdateEntity(ctx, t.ContentType, entity.Slug, func(e *content.Entity) {
		e.Description = description
	})
	if err != nil {
		return fmt.Errorf("failed to store description: %w", err)
	}

	slog.Debug("External description extracted", "slug", entity.Slug, "length", len(description))
	return nil
}

func (t *ExtractExternalTask) fetchPage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.Config.Settings.GetTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
