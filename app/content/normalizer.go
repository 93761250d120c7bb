package content

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source date fields are anchored at local midnight in a fixed reference
// zone so the same input always normalizes to the same instant, regardless
// of where the process runs.
var referenceZone = time.FixedZone("UTC-5", -5*60*60)

const displayDateFormat = "January 02, 2006"

var titleCaser = cases.Title(language.English)

// Normalizer maps heterogeneous raw source metadata into canonical
// entities. It is stateless and safe for concurrent use.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run normalizes a batch of raw items for one content type. A slug
// collision within the batch is fatal; individually malformed dates are
// not (the entity keeps a zero date and sorts last).
func (n *Normalizer) Run(contentType string, items []RawItem) ([]Entity, error) {
	entities := make([]Entity, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		entity := n.normalize(item)

		// An external entity without a derivable host has nowhere to
		// link to; drop it rather than serve a broken entry.
		if entity.IsExternal() && entity.ExternalHost == "" {
			slog.Warn("Skipping entity with unusable external URL", "slug", entity.Slug, "url", entity.ExternalURL)
			continue
		}

		if _, ok := seen[entity.Slug]; ok {
			return nil, &SlugCollisionError{ContentType: contentType, Slug: entity.Slug}
		}
		seen[entity.Slug] = struct{}{}

		entities = append(entities, entity)
	}

	return entities, nil
}

func (n *Normalizer) normalize(item RawItem) Entity {
	slug := item.SlugCandidate
	if slug == "" {
		slug = DeriveSlug(item.FileName)
	}

	entity := Entity{
		ID:             item.ID,
		Slug:           slug,
		Title:          item.Meta.Title,
		Subtitle:       item.Meta.Subtitle,
		Markdown:       item.Markdown,
		OpenGraphImage: item.Meta.OGImage,
		ExternalURL:    item.Meta.ExternalURL,
	}

	if entity.ID == "" {
		entity.ID = slug
	}

	if entity.Title == "" {
		entity.Title = titleFromSlug(slug)
	}

	if entity.ExternalURL != "" {
		entity.ExternalHost = DeriveHost(entity.ExternalURL)
	}

	dateValue := item.Meta.Date
	if prefix := DeriveDatePrefix(item.FileName); prefix != "" {
		dateValue = prefix
	}

	if dateValue != "" {
		date, err := parseSourceDate(dateValue)
		if err != nil {
			slog.Warn("Unparseable date, entity will sort last", "slug", slug, "value", dateValue, "error", err)
		} else {
			entity.Date = date
			entity.DateDisplay = date.Format(displayDateFormat)
		}
	}

	if item.Meta.LastUpdated != "" {
		updated, err := parseSourceDate(item.Meta.LastUpdated)
		if err != nil {
			slog.Warn("Unparseable lastUpdated, dropping", "slug", slug, "value", item.Meta.LastUpdated, "error", err)
		} else {
			entity.LastUpdated = &updated
		}
	}

	return entity
}

// parseSourceDate accepts plain dates (anchored at reference-zone
// midnight) and full RFC 3339 timestamps.
func parseSourceDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	if date, err := time.ParseInLocation("2006-01-02", value, referenceZone); err == nil {
		return date, nil
	}

	if date, err := time.Parse(time.RFC3339, value); err == nil {
		return date, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

func titleFromSlug(slug string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return titleCaser.String(words)
}
