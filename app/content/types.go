package content

import (
	"context"
	"time"
)

// Entity is the canonical shape of one piece of compiled content. Entities
// are never mutated after normalization; every transformation returns a new
// value.
type Entity struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`

	Date        time.Time  `json:"date"`
	DateDisplay string     `json:"date_display"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`

	Markdown        string `json:"markdown,omitempty"`
	RenderedContent string `json:"rendered_content,omitempty"`

	OpenGraphImage string `json:"open_graph_image"`
	ExternalURL    string `json:"external_url"`
	ExternalHost   string `json:"external_host"`

	Views *int64 `json:"views,omitempty"`
}

// IsExternal reports whether the entity points at content hosted elsewhere.
func (e Entity) IsExternal() bool {
	return e.ExternalURL != ""
}

// WithoutBody returns a copy suitable for list payloads: the raw markdown
// and rendered output are dropped, everything else is kept.
func (e Entity) WithoutBody() Entity {
	e.Markdown = ""
	e.RenderedContent = ""
	return e
}

// RawMeta carries source metadata before normalization. Filesystem sources
// fill it from front-matter, remote sources from API fields. Missing values
// stay empty strings.
type RawMeta struct {
	Title       string
	Subtitle    string
	Date        string
	LastUpdated string
	OGImage     string
	ExternalURL string
}

// RawItem is one discovered content item prior to normalization.
type RawItem struct {
	ID            string
	SlugCandidate string
	FileName      string
	Meta          RawMeta
	Markdown      string
	Index         int
}

// PaginatedResult is one page of a date-sorted collection.
type PaginatedResult struct {
	Items        []Entity `json:"items"`
	CurrentPage  int      `json:"current_page"`
	TotalPages   int      `json:"total_pages"`
	PreviousPage *int     `json:"previous_page"`
	NextPage     *int     `json:"next_page"`
}

// Source enumerates raw items for one content type.
type Source interface {
	Load(ctx context.Context) ([]RawItem, error)
}

// Renderer turns raw markdown into render-ready HTML for a given slug.
// Refresh rescans any per-slug asset metadata the renderer depends on.
type Renderer interface {
	Render(markdown, slug string) (string, error)
	Refresh() error
}

// Store persists compiled entity collections keyed by content type. A
// Replace must be atomic from the reader's perspective.
type Store interface {
	Replace(ctx context.Context, contentType string, entities []Entity, createdAt time.Time) error
	Get(ctx context.Context, contentType string) ([]Entity, time.Time, error)
	Delete(ctx context.Context, contentType string) error
}
