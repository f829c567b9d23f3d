// Package postgres implements PostgreSQL persistence layer for HardwareHub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
	"github.com/embedpath/hardwarehub-backend/pkg/timeutil"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressStore implements learner.ProgressStore for PostgreSQL.
//
// The tier lives on the learners row; completed lessons and paths live in
// their own tables keyed by (learner_id, lesson_id) and (learner_id, path_id).
// Put reconciles all three inside one transaction, so a failed write leaves
// the previous state intact and the error reaches the caller.
type ProgressStore struct {
	conn *Connection
}

// NewProgressStore creates a new ProgressStore.
func NewProgressStore(conn *Connection) *ProgressStore {
	return &ProgressStore{conn: conn}
}

// Get returns the full progress of a learner.
// Returns shared.ErrLearnerNotFound if the learner is not registered.
func (s *ProgressStore) Get(ctx context.Context, learnerID shared.LearnerID) (*learner.Progress, error) {
	var (
		tier      string
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.conn.QueryRow(ctx,
		"SELECT tier, created_at, updated_at FROM learners WHERE id = $1",
		learnerID.String(),
	).Scan(&tier, &createdAt, &updatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner tier: %w", err)
	}

	progress := &learner.Progress{
		LearnerID:        learnerID,
		Tier:             shared.SkillTier(tier),
		CompletedLessons: make(map[shared.LessonID]struct{}),
		CompletedPaths:   make(map[shared.PathID]struct{}),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}

	if err := s.loadLessonCompletions(ctx, progress); err != nil {
		return nil, err
	}
	if err := s.loadPathCompletions(ctx, progress); err != nil {
		return nil, err
	}

	return progress, nil
}

// Put persists the full progress of a learner.
//
// Completion rows are inserted with ON CONFLICT DO NOTHING, so original
// completion timestamps survive repeat writes; rows absent from the progress
// sets are deleted, which is how Reset clears history.
func (s *ProgressStore) Put(ctx context.Context, learnerID shared.LearnerID, progress *learner.Progress) error {
	return s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE learners SET tier = $1, updated_at = $2 WHERE id = $3",
			progress.Tier.Normalize().String(),
			timeutil.Now(),
			learnerID.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to update learner tier: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrLearnerNotFound
		}

		if err := s.syncLessonCompletions(ctx, tx, learnerID, progress); err != nil {
			return err
		}
		return s.syncPathCompletions(ctx, tx, learnerID, progress)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Reconciliation support
// ─────────────────────────────────────────────────────────────────────────────

// RecentlyActive returns up to limit learner IDs ordered by last update,
// newest first. Used by the progress reconciliation job.
func (s *ProgressStore) RecentlyActive(ctx context.Context, limit int) ([]shared.LearnerID, error) {
	rows, err := s.conn.Query(ctx,
		"SELECT id FROM learners ORDER BY updated_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recently active learners: %w", err)
	}
	defer rows.Close()

	var ids []shared.LearnerID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan learner id: %w", err)
		}
		ids = append(ids, shared.LearnerID(id))
	}

	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (s *ProgressStore) loadLessonCompletions(ctx context.Context, progress *learner.Progress) error {
	rows, err := s.conn.Query(ctx,
		"SELECT lesson_id FROM lesson_completions WHERE learner_id = $1",
		progress.LearnerID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to query lesson completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lessonID int
		if err := rows.Scan(&lessonID); err != nil {
			return fmt.Errorf("failed to scan lesson completion: %w", err)
		}
		progress.CompletedLessons[shared.LessonID(lessonID)] = struct{}{}
	}

	return rows.Err()
}

func (s *ProgressStore) loadPathCompletions(ctx context.Context, progress *learner.Progress) error {
	rows, err := s.conn.Query(ctx,
		"SELECT path_id FROM path_completions WHERE learner_id = $1",
		progress.LearnerID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to query path completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pathID string
		if err := rows.Scan(&pathID); err != nil {
			return fmt.Errorf("failed to scan path completion: %w", err)
		}
		progress.CompletedPaths[shared.PathID(pathID)] = struct{}{}
	}

	return rows.Err()
}

func (s *ProgressStore) syncLessonCompletions(ctx context.Context, tx pgx.Tx, learnerID shared.LearnerID, progress *learner.Progress) error {
	lessonIDs := make([]int, 0, len(progress.CompletedLessons))
	for id := range progress.CompletedLessons {
		lessonIDs = append(lessonIDs, int(id))
	}

	_, err := tx.Exec(ctx,
		"DELETE FROM lesson_completions WHERE learner_id = $1 AND lesson_id != ALL($2)",
		learnerID.String(), lessonIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to prune lesson completions: %w", err)
	}

	for _, id := range lessonIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO lesson_completions (learner_id, lesson_id)
			VALUES ($1, $2)
			ON CONFLICT (learner_id, lesson_id) DO NOTHING
		`, learnerID.String(), id)
		if err != nil {
			return fmt.Errorf("failed to insert lesson completion: %w", err)
		}
	}

	return nil
}

func (s *ProgressStore) syncPathCompletions(ctx context.Context, tx pgx.Tx, learnerID shared.LearnerID, progress *learner.Progress) error {
	pathIDs := make([]string, 0, len(progress.CompletedPaths))
	for id := range progress.CompletedPaths {
		pathIDs = append(pathIDs, id.String())
	}

	_, err := tx.Exec(ctx,
		"DELETE FROM path_completions WHERE learner_id = $1 AND path_id != ALL($2)",
		learnerID.String(), pathIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to prune path completions: %w", err)
	}

	for _, id := range pathIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO path_completions (learner_id, path_id)
			VALUES ($1, $2)
			ON CONFLICT (learner_id, path_id) DO NOTHING
		`, learnerID.String(), id)
		if err != nil {
			return fmt.Errorf("failed to insert path completion: %w", err)
		}
	}

	return nil
}
