package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mpetrie/pressmill/app/analytics"
	"github.com/mpetrie/pressmill/app/content"
)

// WarmViewsTask pre-fetches view counts for every entity of a content
// type so the first page load after a deploy does not block on the
// analytics service.
type WarmViewsTask struct {
	Task
	cache     *content.Cache
	analytics *analytics.Client
}

func NewWarmViewsTask(contentType string, cache *content.Cache, analyticsClient *analytics.Client) *WarmViewsTask {
	return &WarmViewsTask{
		Task:      NewTask(TaskTypeWarmViews, contentType),
		cache:     cache,
		analytics: analyticsClient,
	}
}

func (t *WarmViewsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.analytics.Enabled() {
		slog.Debug("Analytics disabled, skipping view warmup", "content_type", t.ContentType)
		return nil
	}

	entities, err := t.cache.GetAll(ctx, t.ContentType)
	if err != nil {
		return fmt.Errorf("failed to load content for view warmup: %w", err)
	}

	warmed := 0
	for _, entity := range entities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := t.analytics.Views(ctx, entity.Slug); err != nil {
			slog.Warn("Failed to warm view count", "slug", entity.Slug, "error", err)
			continue
		}
		warmed++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"content_type", t.ContentType,
		"duration", t.GetDuration(),
		"warmed", warmed)

	return nil
}
