package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpetrie/pressmill/app/analytics"
	"github.com/mpetrie/pressmill/app/content"
	"github.com/mpetrie/pressmill/app/database"
	"github.com/mpetrie/pressmill/app/render"
	"github.com/mpetrie/pressmill/app/tasks"
)

type stubSource struct {
	items []content.RawItem
}

func (s *stubSource) Load(_ context.Context) ([]content.RawItem, error) {
	return s.items, nil
}

type stubStore struct {
	entities  map[string][]content.Entity
	createdAt map[string]time.Time
}

func newStubStore() *stubStore {
	return &stubStore{
		entities:  make(map[string][]content.Entity),
		createdAt: make(map[string]time.Time),
	}
}

func (s *stubStore) Replace(_ context.Context, contentType string, entities []content.Entity, createdAt time.Time) error {
	s.entities[contentType] = entities
	s.createdAt[contentType] = createdAt
	return nil
}

func (s *stubStore) Get(_ context.Context, contentType string) ([]content.Entity, time.Time, error) {
	return s.entities[contentType], s.createdAt[contentType], nil
}

func (s *stubStore) Delete(_ context.Context, contentType string) error {
	delete(s.entities, contentType)
	delete(s.createdAt, contentType)
	return nil
}

type stubStats struct{}

func (stubStats) GetStats(_ context.Context) (map[string]database.TypeStats, error) {
	return map[string]database.TypeStats{}, nil
}

type stubScheduler struct {
	enqueued []tasks.TaskInterface
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}
func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.enqueued = append(s.enqueued, task)
	return nil
}

func newTestServer(t *testing.T, items []content.RawItem) (*gin.Engine, *stubScheduler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	configBody := `
source:
  mode: filesystem
  dir: ./_posts
settings:
  enabled: true
  page_size: 2
`
	if err := os.WriteFile(filepath.Join(dir, "posts.yml"), []byte(configBody), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	configCache := content.NewConfigCache(dir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}

	config, err := configCache.GetConfig("posts")
	if err != nil {
		t.Fatalf("Failed to get config: %v", err)
	}

	compiler := content.NewCompiler(config, &stubSource{items: items}, render.NewRenderer("", ""))
	cache := content.NewCache(newStubStore(), map[string]*content.Compiler{"posts": compiler})

	scheduler := &stubScheduler{}
	analyticsClient := analytics.NewClient("", "", &http.Client{}, "test-agent")

	handler := NewHandler(configCache, cache, analyticsClient, stubStats{}, scheduler)
	return NewServer(handler, "test-key"), scheduler
}

func doRequest(t *testing.T, server *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func testItems() []content.RawItem {
	return []content.RawItem{
		{FileName: "2024-03-10-newest-post.md", Markdown: "# Newest\n\nBody text here."},
		{FileName: "2024-02-10-middle-post.md", Markdown: "Middle body."},
		{FileName: "2024-01-05-oldest-post.md", Markdown: "Oldest body."},
	}
}

func TestHandler_GetContentList(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/content/posts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result content.PaginatedResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(result.Items) != 2 {
		t.Fatalf("Expected 2 items on first page, got %d", len(result.Items))
	}
	if result.Items[0].Slug != "newest-post" {
		t.Errorf("Expected newest first, got '%s'", result.Items[0].Slug)
	}
	if result.Items[0].Markdown != "" {
		t.Error("List payload should not include markdown bodies")
	}
	if result.Items[0].Description == "" {
		t.Error("List payload should include descriptions")
	}
	if result.TotalPages != 2 {
		t.Errorf("Expected 2 total pages, got %d", result.TotalPages)
	}
	if result.NextPage == nil || *result.NextPage != 2 {
		t.Errorf("Expected next page 2, got %v", result.NextPage)
	}
}

func TestHandler_GetContentList_SecondPage(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/content/posts?page=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var result content.PaginatedResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(result.Items) != 1 || result.Items[0].Slug != "oldest-post" {
		t.Errorf("Unexpected second page: %+v", result.Items)
	}
	if result.PreviousPage == nil || *result.PreviousPage != 1 {
		t.Errorf("Expected previous page 1, got %v", result.PreviousPage)
	}
}

func TestHandler_GetContentList_PageOutOfRange(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/content/posts?page=99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for out-of-range page, got %d", w.Code)
	}
}

func TestHandler_GetContentList_UnknownType(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/content/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown type, got %d", w.Code)
	}
}

func TestHandler_GetContentItem(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/content/posts/newest-post", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var entity content.Entity
	if err := json.Unmarshal(w.Body.Bytes(), &entity); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if !strings.Contains(entity.RenderedContent, "<h1") {
		t.Errorf("Expected rendered HTML, got '%s'", entity.RenderedContent)
	}
	if entity.DateDisplay != "March 10, 2024" {
		t.Errorf("Unexpected display date '%s'", entity.DateDisplay)
	}
}

func TestHandler_GetContentItem_NotFound(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/content/posts/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestHandler_APIRebuildContent_RequiresAuth(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "POST", "/api/content/posts/rebuild", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got %d", w.Code)
	}
}

func TestHandler_APIRebuildContent(t *testing.T) {
	server, scheduler := newTestServer(t, testItems())

	w := doRequest(t, server, "POST", "/api/content/posts/rebuild", map[string]string{"X-API-Key": "test-key"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}

	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetType() != tasks.TaskTypeRebuildContent {
		t.Errorf("Unexpected task type '%s'", scheduler.enqueued[0].GetType())
	}
}

func TestHandler_APIListContent(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/api/content", map[string]string{"X-API-Key": "test-key"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if summary["total"].(float64) != 1 {
		t.Errorf("Expected 1 content type, got %v", summary["total"])
	}

	types := summary["content_types"].([]interface{})
	info := types[0].(map[string]interface{})
	if info["type"] != "posts" {
		t.Errorf("Unexpected content type '%v'", info["type"])
	}
	if info["page_size"].(float64) != 2 {
		t.Errorf("Unexpected page size %v", info["page_size"])
	}
}

func TestHandler_GetHealth(t *testing.T) {
	server, _ := newTestServer(t, testItems())

	w := doRequest(t, server, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if health["loaded_configurations"].(float64) != 1 {
		t.Errorf("Expected 1 loaded configuration, got %v", health["loaded_configurations"])
	}
}
