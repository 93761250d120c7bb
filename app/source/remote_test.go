package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestRemote(url string) *Remote {
	r := NewRemote(url, "secret-token", 5*time.Second, &http.Client{}, "test-agent")
	r.retryDelay = time.Millisecond
	return r
}

func TestRemote_Load_WalksCursorPages(t *testing.T) {
	var cursors []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)

		page := remotePage{}
		switch cursor {
		case "":
			page.Items = []remoteItem{{ID: "1", Slug: "first-post", Title: "First"}}
			page.NextCursor = "c2"
			page.HasMore = true
		case "c2":
			page.Items = []remoteItem{{ID: "2", Slug: "second-post", Title: "Second"}}
			page.HasMore = false
		default:
			t.Errorf("Unexpected cursor '%s'", cursor)
		}

		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	items, err := newTestRemote(server.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].SlugCandidate != "first-post" || items[1].SlugCandidate != "second-post" {
		t.Errorf("Unexpected item order: %+v", items)
	}
	if len(cursors) != 2 || cursors[0] != "" || cursors[1] != "c2" {
		t.Errorf("Expected sequential cursor walk, got %v", cursors)
	}
}

func TestRemote_Load_SendsAuthAndPageSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Unexpected authorization header '%s'", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "100" {
			t.Errorf("Unexpected page size '%s'", got)
		}
		if got := r.URL.Query().Get("published"); got != "true" {
			t.Errorf("Expected published filter, got '%s'", got)
		}
		if got := r.URL.Query().Get("sort"); got != "-date" {
			t.Errorf("Expected date-descending sort, got '%s'", got)
		}
		_ = json.NewEncoder(w).Encode(remotePage{})
	}))
	defer server.Close()

	if _, err := newTestRemote(server.URL).Load(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestRemote_Load_DropsUnpublishedItems(t *testing.T) {
	published := true
	draft := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remotePage{Items: []remoteItem{
			{ID: "1", Slug: "live-post", Published: &published},
			{ID: "2", Slug: "draft-post", Published: &draft},
			{ID: "3", Slug: "legacy-post"},
		}})
	}))
	defer server.Close()

	items, err := newTestRemote(server.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d: %+v", len(items), items)
	}
	for _, item := range items {
		if item.SlugCandidate == "draft-post" {
			t.Error("Draft item should not be ingested")
		}
	}
}

func TestRemote_Load_RetriesServerErrors(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(remotePage{Items: []remoteItem{{ID: "1", Slug: "post"}}})
	}))
	defer server.Close()

	items, err := newTestRemote(server.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(items))
	}
}

func TestRemote_Load_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestRemote(server.URL).Load(context.Background()); err == nil {
		t.Fatal("Expected error after exhausted retries")
	}
	if attempts != remoteMaxRetries {
		t.Errorf("Expected %d attempts, got %d", remoteMaxRetries, attempts)
	}
}

func TestRemote_Load_ClientErrorIsNotRetried(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := newTestRemote(server.URL).Load(context.Background()); err == nil {
		t.Fatal("Expected error for unauthorized response")
	}
	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
}
