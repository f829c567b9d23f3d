// Package postgres implements PostgreSQL persistence layer for HardwareHub.
package postgres

import (
	"context"
	"fmt"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements catalog.Repository for PostgreSQL.
// The catalog is loaded whole: it is small, immutable config data and the
// domain layer indexes it in memory.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// Load reads every lesson and builds the in-memory catalog.
func (r *CatalogRepository) Load(ctx context.Context) (*catalog.Catalog, error) {
	query := `
		SELECT id, title, required_tier, COALESCE(path_id, ''), position
		FROM lessons
		ORDER BY path_id, position, id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []catalog.Lesson
	for rows.Next() {
		var (
			id           int
			title        string
			requiredTier string
			pathID       string
			position     int
		)

		if err := rows.Scan(&id, &title, &requiredTier, &pathID, &position); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}

		lessons = append(lessons, catalog.Lesson{
			ID:           shared.LessonID(id),
			Title:        title,
			RequiredTier: shared.SkillTier(requiredTier),
			PathID:       shared.PathID(pathID),
			Position:     position,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return catalog.NewCatalog(lessons), nil
}

// Count returns the number of lessons in the catalog.
func (r *CatalogRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM lessons").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// Seed inserts lessons (and their paths) if missing. Used at startup to load
// the bundled curriculum into a fresh database; existing rows win.
func (r *CatalogRepository) Seed(ctx context.Context, lessons []catalog.Lesson) error {
	pathQuery := `
		INSERT INTO paths (id, title)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`
	lessonQuery := `
		INSERT INTO lessons (id, title, required_tier, path_id, position)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (id) DO NOTHING
	`

	for _, l := range lessons {
		if l.InPath() {
			if _, err := r.conn.Exec(ctx, pathQuery, l.PathID.String(), l.PathID.String()); err != nil {
				return fmt.Errorf("failed to seed path %s: %w", l.PathID, err)
			}
		}

		_, err := r.conn.Exec(ctx, lessonQuery,
			int(l.ID),
			l.Title,
			l.RequiredTier.Normalize().String(),
			l.PathID.String(),
			l.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to seed lesson %d: %w", int(l.ID), err)
		}
	}

	return nil
}
