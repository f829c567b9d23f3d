// Package postgres implements PostgreSQL persistence layer for HardwareHub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSIGHTS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InsightsRepository implements insights.Repository for PostgreSQL.
type InsightsRepository struct {
	conn *Connection
}

// NewInsightsRepository creates a new InsightsRepository.
func NewInsightsRepository(conn *Connection) *InsightsRepository {
	return &InsightsRepository{conn: conn}
}

// Upsert stores a scraped post, updating counters if it was seen before.
// Returns true if the post was stored for the first time.
func (r *InsightsRepository) Upsert(ctx context.Context, post insights.Post) (bool, error) {
	query := `
		INSERT INTO community_posts (id, subreddit, title, self_text, score, num_comments, url, theme, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			score = EXCLUDED.score,
			num_comments = EXCLUDED.num_comments,
			scraped_at = EXCLUDED.scraped_at
		RETURNING (xmax = 0)
	`

	var inserted bool
	err := r.conn.QueryRow(ctx, query,
		post.ID,
		post.Subreddit,
		post.Title,
		post.SelfText,
		post.Score,
		post.NumComments,
		post.URL,
		post.Theme.String(),
		post.ScrapedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert community post: %w", err)
	}

	return inserted, nil
}

// List returns the most recently scraped posts, newest first.
func (r *InsightsRepository) List(ctx context.Context, limit int) ([]insights.Post, error) {
	query := `
		SELECT id, subreddit, title, self_text, score, num_comments, url, theme, scraped_at
		FROM community_posts
		ORDER BY scraped_at DESC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list community posts: %w", err)
	}
	defer rows.Close()

	return r.scanPosts(rows)
}

// ListByTheme returns the most recently scraped posts of a theme.
func (r *InsightsRepository) ListByTheme(ctx context.Context, theme insights.Theme, limit int) ([]insights.Post, error) {
	query := `
		SELECT id, subreddit, title, self_text, score, num_comments, url, theme, scraped_at
		FROM community_posts
		WHERE theme = $1
		ORDER BY scraped_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, theme.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list community posts by theme: %w", err)
	}
	defer rows.Close()

	return r.scanPosts(rows)
}

// CountByTheme returns post counts per theme.
func (r *InsightsRepository) CountByTheme(ctx context.Context) (map[insights.Theme]int, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT theme, COUNT(*) FROM community_posts GROUP BY theme",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count community posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[insights.Theme]int)
	for rows.Next() {
		var (
			theme string
			count int
		)
		if err := rows.Scan(&theme, &count); err != nil {
			return nil, fmt.Errorf("failed to scan theme count: %w", err)
		}
		counts[insights.Theme(theme)] = count
	}

	return counts, rows.Err()
}

// DeleteOlderThan removes posts scraped before the cutoff.
func (r *InsightsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx,
		"DELETE FROM community_posts WHERE scraped_at < $1",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale community posts: %w", err)
	}

	return tag.RowsAffected(), nil
}

// scanPosts scans community posts from rows.
func (r *InsightsRepository) scanPosts(rows pgx.Rows) ([]insights.Post, error) {
	var posts []insights.Post

	for rows.Next() {
		var (
			p     insights.Post
			theme string
		)

		err := rows.Scan(
			&p.ID,
			&p.Subreddit,
			&p.Title,
			&p.SelfText,
			&p.Score,
			&p.NumComments,
			&p.URL,
			&theme,
			&p.ScrapedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community post: %w", err)
		}

		p.Theme = insights.Theme(theme)
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return posts, nil
}
