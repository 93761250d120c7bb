package content

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizer_Run_FilesystemItem(t *testing.T) {
	normalizer := NewNormalizer()

	items := []RawItem{
		{
			FileName: "2024-01-05-my-post.md",
			Meta: RawMeta{
				Title:    "My Post",
				Subtitle: "A subtitle",
				OGImage:  "/og/my-post.jpg",
			},
			Markdown: "# Hello",
		},
	}

	entities, err := normalizer.Run("posts", items)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("Expected 1 entity, got %d", len(entities))
	}

	entity := entities[0]
	if entity.Slug != "my-post" {
		t.Errorf("Expected slug 'my-post', got '%s'", entity.Slug)
	}
	if entity.ID != "my-post" {
		t.Errorf("Expected ID to default to slug, got '%s'", entity.ID)
	}
	if entity.Title != "My Post" {
		t.Errorf("Expected title 'My Post', got '%s'", entity.Title)
	}
	if entity.DateDisplay != "January 05, 2024" {
		t.Errorf("Expected display date 'January 05, 2024', got '%s'", entity.DateDisplay)
	}

	expected := time.Date(2024, time.January, 5, 0, 0, 0, 0, referenceZone)
	if !entity.Date.Equal(expected) {
		t.Errorf("Expected date %v, got %v", expected, entity.Date)
	}
}

func TestNormalizer_Run_TitleDerivedFromSlug(t *testing.T) {
	normalizer := NewNormalizer()

	entities, err := normalizer.Run("pages", []RawItem{
		{FileName: "open-source-work.md"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if entities[0].Title != "Open Source Work" {
		t.Errorf("Expected derived title 'Open Source Work', got '%s'", entities[0].Title)
	}
}

func TestNormalizer_Run_ExternalHostDerived(t *testing.T) {
	normalizer := NewNormalizer()

	entities, err := normalizer.Run("posts", []RawItem{
		{
			FileName: "2023-02-01-elsewhere.md",
			Meta:     RawMeta{Title: "Elsewhere", ExternalURL: "https://www.example.com/elsewhere"},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if entities[0].ExternalHost != "example.com" {
		t.Errorf("Expected external host 'example.com', got '%s'", entities[0].ExternalHost)
	}
	if !entities[0].IsExternal() {
		t.Error("Entity with external URL should report IsExternal")
	}
}

func TestNormalizer_Run_UnusableExternalURLSkipped(t *testing.T) {
	normalizer := NewNormalizer()

	entities, err := normalizer.Run("posts", []RawItem{
		{
			FileName: "2023-02-01-broken.md",
			Meta:     RawMeta{Title: "Broken", ExternalURL: "not a url"},
		},
		{
			FileName: "2023-03-01-scheme-less.md",
			Meta:     RawMeta{Title: "Scheme Less", ExternalURL: "example.com/post"},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(entities) != 1 {
		t.Fatalf("Expected the unusable external entity to be dropped, got %d entities", len(entities))
	}
	if entities[0].Slug != "scheme-less" {
		t.Errorf("Unexpected surviving entity '%s'", entities[0].Slug)
	}
	if entities[0].ExternalHost != "example.com" {
		t.Errorf("Expected external host 'example.com', got '%s'", entities[0].ExternalHost)
	}
}

func TestNormalizer_Run_SlugCollisionFatal(t *testing.T) {
	normalizer := NewNormalizer()

	_, err := normalizer.Run("posts", []RawItem{
		{FileName: "2023-01-01-duplicate.md", Meta: RawMeta{Title: "First"}},
		{FileName: "2024-06-01-duplicate.md", Meta: RawMeta{Title: "Second"}},
	})
	if err == nil {
		t.Fatal("Expected slug collision error")
	}

	var collision *SlugCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("Expected SlugCollisionError, got %T: %v", err, err)
	}
	if collision.Slug != "duplicate" {
		t.Errorf("Expected colliding slug 'duplicate', got '%s'", collision.Slug)
	}
}

func TestNormalizer_Run_UnparseableDateSortsLast(t *testing.T) {
	normalizer := NewNormalizer()

	entities, err := normalizer.Run("posts", []RawItem{
		{FileName: "undated.md", Meta: RawMeta{Title: "Undated", Date: "next tuesday"}},
	})
	if err != nil {
		t.Fatalf("Malformed date should not be fatal, got: %v", err)
	}

	if !entities[0].Date.IsZero() {
		t.Errorf("Expected zero date for unparseable input, got %v", entities[0].Date)
	}
	if entities[0].DateDisplay != "" {
		t.Errorf("Expected empty display date, got '%s'", entities[0].DateDisplay)
	}
}

func TestNormalizer_Run_RemoteItemKeepsSourceID(t *testing.T) {
	normalizer := NewNormalizer()

	entities, err := normalizer.Run("posts", []RawItem{
		{
			ID:            "a68eaeba-1926-4e41-83db-bc2ea878bc8f",
			SlugCandidate: "remote-post",
			Meta:          RawMeta{Title: "Remote", Date: "2024-03-10", LastUpdated: "2024-03-12"},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	entity := entities[0]
	if entity.ID != "a68eaeba-1926-4e41-83db-bc2ea878bc8f" {
		t.Errorf("Expected source-assigned ID to be kept, got '%s'", entity.ID)
	}
	if entity.Slug != "remote-post" {
		t.Errorf("Expected slug 'remote-post', got '%s'", entity.Slug)
	}
	if entity.LastUpdated == nil {
		t.Fatal("Expected lastUpdated to be set")
	}
	if entity.LastUpdated.Format("2006-01-02") != "2024-03-12" {
		t.Errorf("Expected lastUpdated 2024-03-12, got %v", entity.LastUpdated)
	}
}
