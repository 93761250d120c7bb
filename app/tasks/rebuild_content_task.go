package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mpetrie/pressmill/app/content"
)

type RebuildContentTask struct {
	Task
	Config *content.Config
	cache  *content.Cache
}

func NewRebuildContentTask(contentType string, config *content.Config, cache *content.Cache) *RebuildContentTask {
	return &RebuildContentTask{
		Task:   NewTask(TaskTypeRebuildContent, contentType),
		Config: config,
		cache:  cache,
	}
}

func (t *RebuildContentTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.Enabled {
		slog.Debug("Content type disabled, skipping", "content_type", t.ContentType)
		return nil
	}

	// GetAll rebuilds only when the cached collection has gone stale, so
	// scheduling this task more often than the TTL is harmless.
	entities, err := t.cache.GetAll(ctx, t.ContentType)
	if err != nil {
		return fmt.Errorf("failed to refresh content: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"content_type", t.ContentType,
		"duration", t.GetDuration(),
		"entities", len(entities))

	return nil
}
