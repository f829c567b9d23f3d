package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE PROGRESS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileProgressJob re-evaluates path completions and promotions for
// recently active learners. It repairs state after partial failures: a
// completion that was stored but whose path unlock or promotion was lost
// gets applied on the next pass.
type ReconcileProgressJob struct {
	tracker *learner.Tracker
	store   learner.RecentlyActive
	logger  *slog.Logger
	config  ReconcileProgressConfig
}

// ReconcileProgressConfig contains configuration for the reconcile job.
type ReconcileProgressConfig struct {
	// BatchSize is how many recently active learners to check per run.
	BatchSize int

	// Timeout bounds a single run.
	Timeout time.Duration
}

// DefaultReconcileProgressConfig returns sensible defaults.
func DefaultReconcileProgressConfig() ReconcileProgressConfig {
	return ReconcileProgressConfig{
		BatchSize: 200,
		Timeout:   2 * time.Minute,
	}
}

// NewReconcileProgressJob creates a new reconcile job.
func NewReconcileProgressJob(
	tracker *learner.Tracker,
	store learner.RecentlyActive,
	logger *slog.Logger,
	config ReconcileProgressConfig,
) *ReconcileProgressJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config = DefaultReconcileProgressConfig()
	}

	return &ReconcileProgressJob{
		tracker: tracker,
		store:   store,
		logger:  logger.With("job", "reconcile_progress"),
		config:  config,
	}
}

// Name returns the unique job name.
func (j *ReconcileProgressJob) Name() string {
	return "reconcile_progress"
}

// Description returns a human-readable description.
func (j *ReconcileProgressJob) Description() string {
	return "Re-checks path completions and tier promotions for recently active learners"
}

// Run executes one reconcile pass. A failure for one learner does not stop
// the pass; the job fails only when the learner listing itself fails.
func (j *ReconcileProgressJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	learnerIDs, err := j.store.RecentlyActive(ctx, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("reconcile progress: list recently active: %w", err)
	}

	checked := 0
	failed := 0
	for _, id := range learnerIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := j.tracker.CheckAllPathCompletions(ctx, id); err != nil {
			failed++
			j.logger.Warn("reconcile failed for learner",
				"learner_id", id,
				"error", err,
			)
			continue
		}
		checked++
	}

	j.logger.Info("progress reconcile completed",
		"checked", checked,
		"failed", failed,
	)

	return nil
}
