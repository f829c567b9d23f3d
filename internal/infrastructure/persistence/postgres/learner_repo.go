// Package postgres implements PostgreSQL persistence layer for HardwareHub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// Create creates a new learner.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (id, email, display_name, credential_hash, tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		l.ID.String(),
		l.Email.String(),
		l.DisplayName,
		l.CredentialHash,
		shared.TierBeginner.String(),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}

	return nil
}

// GetByID returns a learner by internal ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id shared.LearnerID) (*learner.Learner, error) {
	query := `
		SELECT id, email, display_name, credential_hash, created_at, updated_at
		FROM learners
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanLearner(row)
}

// GetByEmail returns a learner by email.
func (r *LearnerRepository) GetByEmail(ctx context.Context, email shared.Email) (*learner.Learner, error) {
	query := `
		SELECT id, email, display_name, credential_hash, created_at, updated_at
		FROM learners
		WHERE email = $1
	`

	row := r.conn.QueryRow(ctx, query, email.Normalize().String())
	return r.scanLearner(row)
}

// Exists checks if a learner exists by ID.
func (r *LearnerRepository) Exists(ctx context.Context, id shared.LearnerID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM learners WHERE id = $1)",
		id.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check learner existence: %w", err)
	}
	return exists, nil
}

// scanLearner scans a single learner from a row.
func (r *LearnerRepository) scanLearner(row pgx.Row) (*learner.Learner, error) {
	var (
		l              learner.Learner
		id, email      string
		createdAt      time.Time
		updatedAt      time.Time
		credentialHash string
	)

	err := row.Scan(&id, &email, &l.DisplayName, &credentialHash, &createdAt, &updatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learner: %w", err)
	}

	l.ID = shared.LearnerID(id)
	l.Email = shared.Email(email)
	l.CredentialHash = credentialHash
	l.CreatedAt = createdAt
	l.UpdatedAt = updatedAt

	return &l, nil
}
