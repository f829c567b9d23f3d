// Package jobs contains implementations of scheduled jobs for HardwareHub.
// Each job wraps an application command and adds scheduling metadata,
// so manual runs through the admin API and scheduled runs share one path.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC INSIGHTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SyncInsightsJob periodically pulls fresh community posts, classifies them
// and stores the matching ones. The pipeline itself lives in the application
// layer; the job supplies configuration and records run statistics.
type SyncInsightsJob struct {
	handler *command.SyncInsightsHandler
	logger  *slog.Logger
	config  SyncInsightsConfig

	lastRun atomic.Value // *command.SyncInsightsResult
}

// SyncInsightsConfig contains configuration for the sync job.
type SyncInsightsConfig struct {
	// Subreddits are the source communities, without the "r/" prefix.
	Subreddits []string

	// PostsPerSubreddit is how many newest posts to pull per community.
	PostsPerSubreddit int

	// Timeout bounds a single run.
	Timeout time.Duration
}

// DefaultSyncInsightsConfig returns sensible defaults.
func DefaultSyncInsightsConfig() SyncInsightsConfig {
	return SyncInsightsConfig{
		Subreddits:        []string{"arduino", "esp32", "embedded", "stm32"},
		PostsPerSubreddit: 50,
		Timeout:           5 * time.Minute,
	}
}

// NewSyncInsightsJob creates a new sync job.
func NewSyncInsightsJob(handler *command.SyncInsightsHandler, logger *slog.Logger, config SyncInsightsConfig) *SyncInsightsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if len(config.Subreddits) == 0 {
		config = DefaultSyncInsightsConfig()
	}

	return &SyncInsightsJob{
		handler: handler,
		logger:  logger.With("job", "sync_insights"),
		config:  config,
	}
}

// Name returns the unique job name.
func (j *SyncInsightsJob) Name() string {
	return "sync_insights"
}

// Description returns a human-readable description.
func (j *SyncInsightsJob) Description() string {
	return "Pulls beginner questions from embedded communities and classifies them by theme"
}

// Run executes one sync pass.
func (j *SyncInsightsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	result, err := j.handler.Handle(ctx, command.SyncInsightsCommand{
		Subreddits:        j.config.Subreddits,
		PostsPerSubreddit: j.config.PostsPerSubreddit,
	})
	if err != nil {
		return fmt.Errorf("sync insights: %w", err)
	}

	j.lastRun.Store(result)

	j.logger.Info("insights sync completed",
		"fetched", result.Fetched,
		"matched", result.Matched,
		"stored", result.Stored,
		"failed_subreddits", result.FailedSubreddits,
		"duration", result.Duration.String(),
	)

	return nil
}

// LastRun returns the stats of the most recent completed run, if any.
func (j *SyncInsightsJob) LastRun() *command.SyncInsightsResult {
	if v := j.lastRun.Load(); v != nil {
		return v.(*command.SyncInsightsResult)
	}
	return nil
}
