package api

import (
	"context"

	"github.com/mpetrie/pressmill/app/analytics"
	"github.com/mpetrie/pressmill/app/content"
	"github.com/mpetrie/pressmill/app/database"
	"github.com/mpetrie/pressmill/app/tasks"
)

type StatsProviderInterface interface {
	GetStats(ctx context.Context) (map[string]database.TypeStats, error)
}

var _ StatsProviderInterface = (*database.ContentRepository)(nil)

type Handler struct {
	cache       *content.Cache
	configCache *content.ConfigCache
	analytics   *analytics.Client
	stats       StatsProviderInterface
	scheduler   tasks.TaskSchedulerInterface
}
