package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Cache serves compiled entity collections, rebuilding them through the
// per-type compiler whenever the stored copy is older than the configured
// TTL. Concurrent requests for one content type never trigger concurrent
// rebuilds; losers of the per-type lock reuse the winner's result.
type Cache struct {
	store     Store
	compilers map[string]*Compiler

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCache(store Store, compilers map[string]*Compiler) *Cache {
	return &Cache{
		store:     store,
		compilers: compilers,
		locks:     make(map[string]*sync.Mutex),
	}
}

// GetAll returns the compiled, date-sorted collection for a content type,
// rebuilding it first if the cached copy is stale or missing. A failed
// rebuild falls back to stale data when any exists.
func (c *Cache) GetAll(ctx context.Context, contentType string) ([]Entity, error) {
	compiler, ok := c.compilers[contentType]
	if !ok {
		return nil, fmt.Errorf("unknown content type '%s'", contentType)
	}

	ttl := compiler.Config().Settings.GetCacheTTL()

	entities, createdAt, err := c.store.Get(ctx, contentType)
	if err == nil && isFresh(createdAt, ttl) {
		return entities, nil
	}

	lock := c.typeLock(contentType)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have rebuilt while we waited on the lock.
	entities, createdAt, err = c.store.Get(ctx, contentType)
	if err == nil && isFresh(createdAt, ttl) {
		return entities, nil
	}

	rebuilt, buildErr := c.rebuild(ctx, compiler)
	if buildErr != nil {
		if err == nil && len(entities) > 0 {
			slog.Warn("Rebuild failed, serving stale content", "content_type", contentType, "error", buildErr)
			return entities, nil
		}
		return nil, buildErr
	}

	return rebuilt, nil
}

// GetBySlug returns one entity with its markdown compiled to HTML, or
// ErrNotFound when no entity of the given type has that slug.
func (c *Cache) GetBySlug(ctx context.Context, contentType, slug string) (Entity, error) {
	entities, err := c.GetAll(ctx, contentType)
	if err != nil {
		return Entity{}, err
	}

	for _, entity := range entities {
		if entity.Slug == slug {
			return c.compilers[contentType].RenderEntity(entity)
		}
	}

	return Entity{}, fmt.Errorf("no '%s' entity with slug '%s': %w", contentType, slug, ErrNotFound)
}

// Rebuild forces a fresh compile regardless of TTL.
func (c *Cache) Rebuild(ctx context.Context, contentType string) ([]Entity, error) {
	compiler, ok := c.compilers[contentType]
	if !ok {
		return nil, fmt.Errorf("unknown content type '%s'", contentType)
	}

	lock := c.typeLock(contentType)
	lock.Lock()
	defer lock.Unlock()

	return c.rebuild(ctx, compiler)
}

// Invalidate drops the cached collection so the next read rebuilds.
func (c *Cache) Invalidate(ctx context.Context, contentType string) error {
	if err := c.store.Delete(ctx, contentType); err != nil {
		return fmt.Errorf("failed to invalidate '%s': %w", contentType, err)
	}
	return nil
}

// UpdateEntity applies fn to the cached entity with the given slug and
// persists the collection, preserving its original build timestamp so the
// patch does not extend freshness.
func (c *Cache) UpdateEntity(ctx context.Context, contentType, slug string, fn func(*Entity)) error {
	lock := c.typeLock(contentType)
	lock.Lock()
	defer lock.Unlock()

	entities, createdAt, err := c.store.Get(ctx, contentType)
	if err != nil {
		return fmt.Errorf("failed to load '%s' for update: %w", contentType, err)
	}

	found := false
	for i := range entities {
		if entities[i].Slug == slug {
			fn(&entities[i])
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no '%s' entity with slug '%s': %w", contentType, slug, ErrNotFound)
	}

	return c.store.Replace(ctx, contentType, entities, createdAt)
}

// ContentTypes lists the content types this cache can serve.
func (c *Cache) ContentTypes() []string {
	types := make([]string, 0, len(c.compilers))
	for contentType := range c.compilers {
		types = append(types, contentType)
	}
	return types
}

func (c *Cache) rebuild(ctx context.Context, compiler *Compiler) ([]Entity, error) {
	contentType := compiler.ContentType()

	entities, err := compiler.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild '%s': %w", contentType, err)
	}

	if err := c.store.Replace(ctx, contentType, entities, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to persist '%s': %w", contentType, err)
	}

	slog.Info("Content cache rebuilt", "content_type", contentType, "count", len(entities))

	return entities, nil
}

func (c *Cache) typeLock(contentType string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[contentType]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[contentType] = lock
	}
	return lock
}

func isFresh(createdAt time.Time, ttl time.Duration) bool {
	return !createdAt.IsZero() && time.Since(createdAt) < ttl
}
