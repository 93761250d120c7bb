package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mpetrie/pressmill/app/content"
)

// ContentRepository persists compiled entity collections. Each collection
// is stored as ordered JSON rows sharing one build timestamp, so a read
// returns exactly what one build produced.
type ContentRepository struct {
	db *DB
}

var _ content.Store = (*ContentRepository)(nil)

func NewContentRepository(db *DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Replace swaps the stored collection for a content type in a single
// transaction. Readers see either the old collection or the new one,
// never a mix.
func (r *ContentRepository) Replace(ctx context.Context, contentType string, entities []content.Entity, createdAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_cache WHERE content_type = ?`, contentType); err != nil {
		return fmt.Errorf("failed to clear cached content: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO content_cache (content_type, position, slug, entity_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	createdAtValue := createdAt.UTC().Format(time.RFC3339Nano)

	for position, entity := range entities {
		data, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("failed to serialize entity '%s': %w", entity.Slug, err)
		}

		if _, err := stmt.ExecContext(ctx, contentType, position, entity.Slug, string(data), createdAtValue); err != nil {
			return fmt.Errorf("failed to insert entity '%s': %w", entity.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get returns the stored collection in build order along with its build
// timestamp. A content type with no rows returns an empty slice and a
// zero timestamp.
func (r *ContentRepository) Get(ctx context.Context, contentType string) ([]content.Entity, time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entity_json, created_at
		FROM content_cache
		WHERE content_type = ?
		ORDER BY position
	`, contentType)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query cached content: %w", err)
	}
	defer rows.Close()

	var entities []content.Entity
	var createdAt time.Time

	for rows.Next() {
		var data, createdAtValue string
		if err := rows.Scan(&data, &createdAtValue); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan row: %w", err)
		}

		var entity content.Entity
		if err := json.Unmarshal([]byte(data), &entity); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to deserialize entity: %w", err)
		}

		if createdAt.IsZero() {
			createdAt, err = time.Parse(time.RFC3339Nano, createdAtValue)
			if err != nil {
				return nil, time.Time{}, fmt.Errorf("failed to parse build timestamp: %w", err)
			}
		}

		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read rows: %w", err)
	}

	return entities, createdAt, nil
}

// Delete drops the stored collection for a content type.
func (r *ContentRepository) Delete(ctx context.Context, contentType string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM content_cache WHERE content_type = ?`, contentType); err != nil {
		return fmt.Errorf("failed to delete cached content: %w", err)
	}
	return nil
}

// TypeStats summarizes one cached collection for monitoring.
type TypeStats struct {
	Count   int        `json:"count"`
	BuiltAt *time.Time `json:"built_at,omitempty"`
}

// GetStats reports per-type row counts and build timestamps.
func (r *ContentRepository) GetStats(ctx context.Context) (map[string]TypeStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT content_type, COUNT(*), MAX(created_at)
		FROM content_cache
		GROUP BY content_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]TypeStats)

	for rows.Next() {
		var contentType string
		var count int
		var createdAtValue sql.NullString

		if err := rows.Scan(&contentType, &count, &createdAtValue); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}

		entry := TypeStats{Count: count}
		if createdAtValue.Valid {
			if builtAt, err := time.Parse(time.RFC3339Nano, createdAtValue.String); err == nil {
				entry.BuiltAt = &builtAt
			}
		}

		stats[contentType] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats rows: %w", err)
	}

	return stats, nil
}
