package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"
	"github.com/embedpath/hardwarehub-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP INSIGHTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// CleanupInsightsJob prunes community posts that fell out of the retention
// window. The feed surfaces recent questions; stale rows only slow the
// theme counters down.
type CleanupInsightsJob struct {
	repo   insights.Repository
	logger *slog.Logger
	config CleanupInsightsConfig
}

// CleanupInsightsConfig contains configuration for the cleanup job.
type CleanupInsightsConfig struct {
	// Retention is how long scraped posts are kept.
	Retention time.Duration

	// Timeout bounds a single run.
	Timeout time.Duration
}

// DefaultCleanupInsightsConfig returns sensible defaults.
func DefaultCleanupInsightsConfig() CleanupInsightsConfig {
	return CleanupInsightsConfig{
		Retention: 30 * 24 * time.Hour,
		Timeout:   time.Minute,
	}
}

// NewCleanupInsightsJob creates a new cleanup job.
func NewCleanupInsightsJob(repo insights.Repository, logger *slog.Logger, config CleanupInsightsConfig) *CleanupInsightsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Retention <= 0 {
		config = DefaultCleanupInsightsConfig()
	}

	return &CleanupInsightsJob{
		repo:   repo,
		logger: logger.With("job", "cleanup_insights"),
		config: config,
	}
}

// Name returns the unique job name.
func (j *CleanupInsightsJob) Name() string {
	return "cleanup_insights"
}

// Description returns a human-readable description.
func (j *CleanupInsightsJob) Description() string {
	return "Removes community posts older than the retention window"
}

// Run executes one cleanup pass.
func (j *CleanupInsightsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	cutoff := timeutil.Now().Add(-j.config.Retention)

	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup insights: %w", err)
	}

	j.logger.Info("insights cleanup completed",
		"deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339),
	)

	return nil
}
