package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpetrie/pressmill/app/analytics"
	"github.com/mpetrie/pressmill/app/content"
	"github.com/mpetrie/pressmill/app/tasks"
)

func NewHandler(configCache *content.ConfigCache, cache *content.Cache,
	analyticsClient *analytics.Client, stats StatsProviderInterface,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		cache:       cache,
		configCache: configCache,
		analytics:   analyticsClient,
		stats:       stats,
		scheduler:   scheduler,
	}
}

// GetContentList serves one page of a content type, newest first. Bodies
// are stripped from list payloads; descriptions and view counts are kept.
func (h *Handler) GetContentList(c *gin.Context) {
	contentType := c.Param("type")

	config, err := h.configCache.GetConfig(contentType)
	if err != nil || !config.Settings.Enabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown content type"})
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
			return
		}
	}

	entities, err := h.cache.GetAll(c.Request.Context(), contentType)
	if err != nil {
		slog.Error("Failed to load content", "content_type", contentType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load content"})
		return
	}

	result, err := content.Paginate(entities, config.Settings.PageSize, page)
	if err != nil {
		if errors.Is(err, content.ErrPageOutOfRange) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page out of range"})
			return
		}
		slog.Error("Pagination failed", "content_type", contentType, "page", page, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Pagination failed"})
		return
	}

	for i := range result.Items {
		result.Items[i] = result.Items[i].WithoutBody()
		h.decorateViews(c, &result.Items[i])
	}

	c.JSON(http.StatusOK, result)
}

// GetContentItem serves a single entity with its markdown rendered to
// HTML and its view count attached.
func (h *Handler) GetContentItem(c *gin.Context) {
	contentType := c.Param("type")
	slug := c.Param("slug")

	config, err := h.configCache.GetConfig(contentType)
	if err != nil || !config.Settings.Enabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown content type"})
		return
	}

	entity, err := h.cache.GetBySlug(c.Request.Context(), contentType, slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			return
		}
		slog.Error("Failed to load content item", "content_type", contentType, "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load content"})
		return
	}

	h.decorateViews(c, &entity)

	c.JSON(http.StatusOK, entity)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()
	health["analytics_enabled"] = h.analytics.Enabled()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	types := make([]map[string]interface{}, 0)

	for name, config := range h.configCache.GetConfigs() {
		info := map[string]interface{}{
			"type":      name,
			"enabled":   config.Settings.Enabled,
			"mode":      config.Source.Mode,
			"page_size": config.Settings.PageSize,
			"cache_ttl": config.Settings.GetCacheTTL().String(),
		}

		if entry, ok := stats[name]; ok {
			info["entities"] = entry.Count
			info["built_at"] = entry.BuiltAt
		}

		types = append(types, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"content_types": types,
		"total":         len(types),
	})
}

func (h *Handler) APIListContent(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	contentTypes := make([]map[string]interface{}, 0)

	for name, config := range h.configCache.GetConfigs() {
		info := map[string]interface{}{
			"type":             name,
			"enabled":          config.Settings.Enabled,
			"mode":             config.Source.Mode,
			"page_size":        config.Settings.PageSize,
			"cache_ttl":        config.Settings.GetCacheTTL().String(),
			"timeout":          config.Settings.GetTimeout().String(),
			"excerpt_words":    config.Settings.ExcerptWords,
			"extract_external": config.Settings.ExtractExternal,
		}

		if entry, ok := stats[name]; ok {
			info["entities"] = entry.Count
			info["built_at"] = entry.BuiltAt
		}

		contentTypes = append(contentTypes, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"content_types": contentTypes,
		"total":         len(contentTypes),
	})
}

// APIRebuildContent drops the cached collection for a content type and
// queues an immediate rebuild.
func (h *Handler) APIRebuildContent(c *gin.Context) {
	contentType := c.Param("type")

	config, err := h.configCache.GetConfig(contentType)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown content type"})
		return
	}

	if err := h.cache.Invalidate(c.Request.Context(), contentType); err != nil {
		slog.Error("Failed to invalidate content", "content_type", contentType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate content"})
		return
	}

	task := tasks.NewRebuildContentTask(contentType, config, h.cache)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue rebuild task", "content_type", contentType, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to schedule rebuild"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "Rebuild scheduled",
		"content_type": contentType,
	})
}

func (h *Handler) decorateViews(c *gin.Context, entity *content.Entity) {
	if !h.analytics.Enabled() {
		return
	}

	views, err := h.analytics.Views(c.Request.Context(), entity.Slug)
	if err != nil {
		// View counts are decoration; a failed lookup never fails the page.
		slog.Warn("Failed to fetch view count", "slug", entity.Slug, "error", err)
		return
	}

	entity.Views = &views
}
