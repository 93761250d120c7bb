package content

import (
	"context"
	"fmt"
	"log/slog"
)

// Compiler runs the full ingestion pipeline for one content type: load raw
// items from the source, normalize them into entities, derive excerpts and
// sort by date. Rendering is deliberately not part of Build; markdown is
// compiled to HTML on demand via RenderEntity so list endpoints never pay
// for it.
type Compiler struct {
	config     *Config
	source     Source
	renderer   Renderer
	normalizer *Normalizer
}

func NewCompiler(config *Config, source Source, renderer Renderer) *Compiler {
	return &Compiler{
		config:     config,
		source:     source,
		renderer:   renderer,
		normalizer: NewNormalizer(),
	}
}

func (c *Compiler) ContentType() string {
	return c.config.Type
}

func (c *Compiler) Config() *Config {
	return c.config
}

// Build produces the compiled, date-sorted entity collection for this
// content type. The renderer's asset metadata is refreshed first so
// subsequent on-demand renders see current image dimensions.
func (c *Compiler) Build(ctx context.Context) ([]Entity, error) {
	items, err := c.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load source items: %w", err)
	}

	entities, err := c.normalizer.Run(c.config.Type, items)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize items: %w", err)
	}

	if err := c.renderer.Refresh(); err != nil {
		slog.Warn("Asset metadata refresh failed, renders may use stale dimensions", "content_type", c.config.Type, "error", err)
	}

	for i := range entities {
		if entities[i].Description == "" && !entities[i].IsExternal() {
			entities[i].Description = Excerpt(entities[i].Markdown, c.config.Settings.ExcerptWords)
		}
	}

	entities = SortByDate(entities)

	slog.Debug("Content compiled", "content_type", c.config.Type, "count", len(entities))

	return entities, nil
}

// RenderEntity returns a copy of the entity with its markdown compiled to
// HTML. External entities and entities without a body pass through
// unchanged.
func (c *Compiler) RenderEntity(entity Entity) (Entity, error) {
	if entity.IsExternal() || entity.Markdown == "" {
		return entity, nil
	}

	html, err := c.renderer.Render(entity.Markdown, entity.Slug)
	if err != nil {
		return entity, fmt.Errorf("failed to render '%s': %w", entity.Slug, err)
	}

	entity.RenderedContent = html
	return entity, nil
}
