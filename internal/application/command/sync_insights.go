package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC INSIGHTS COMMAND
// Конвейер сбора инсайтов: выгрузка свежих постов из сообществ, фильтрация
// по ключевым словам, разметка тем, сохранение. Запускается планировщиком
// и админским endpoint'ом.
// ══════════════════════════════════════════════════════════════════════════════

// PostFetcher выгружает свежие посты из одного сообщества.
type PostFetcher interface {
	// FetchNewPosts возвращает до limit новейших постов сообщества.
	FetchNewPosts(ctx context.Context, subreddit string, limit int) ([]insights.Post, error)
}

// InsightsInvalidator сбрасывает кешированные инсайты после синка.
type InsightsInvalidator interface {
	// InvalidateAll удаляет все кешированные списки и счётчики инсайтов.
	InvalidateAll(ctx context.Context) error
}

// SyncInsightsCommand содержит параметры запуска синка.
type SyncInsightsCommand struct {
	// Subreddits - сообщества-источники (без префикса "r/").
	Subreddits []string

	// PostsPerSubreddit - сколько новейших постов брать из каждого.
	PostsPerSubreddit int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c SyncInsightsCommand) Validate() error {
	if len(c.Subreddits) == 0 {
		return errors.New("sync_insights: at least one subreddit is required")
	}
	if c.PostsPerSubreddit <= 0 {
		return errors.New("sync_insights: posts_per_subreddit must be positive")
	}
	return nil
}

// SyncInsightsResult содержит итоги одного прогона.
type SyncInsightsResult struct {
	// Fetched - сколько постов выгружено всего.
	Fetched int `json:"fetched"`

	// Matched - сколько прошло фильтр ключевых слов.
	Matched int `json:"matched"`

	// Stored - сколько сохранено впервые (без обновлений существующих).
	Stored int `json:"stored"`

	// FailedSubreddits - сообщества, выгрузка которых не удалась.
	FailedSubreddits []string `json:"failed_subreddits,omitempty"`

	// Duration - длительность прогона.
	Duration time.Duration `json:"duration"`
}

// SyncInsightsHandler обрабатывает команду синка инсайтов.
type SyncInsightsHandler struct {
	fetcher        PostFetcher
	repo           insights.Repository
	cache          InsightsInvalidator
	eventPublisher shared.EventPublisher
}

// NewSyncInsightsHandler создаёт новый обработчик.
func NewSyncInsightsHandler(
	fetcher PostFetcher,
	repo insights.Repository,
	cache InsightsInvalidator,
	eventPublisher shared.EventPublisher,
) *SyncInsightsHandler {
	return &SyncInsightsHandler{
		fetcher:        fetcher,
		repo:           repo,
		cache:          cache,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет один прогон синка.
//
// Сбой выгрузки одного сообщества не прерывает прогон: остальные
// обрабатываются, а сообщество попадает в FailedSubreddits. Ошибка
// возвращается только если не удалось ни одно сообщество.
func (h *SyncInsightsHandler) Handle(ctx context.Context, cmd SyncInsightsCommand) (*SyncInsightsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "SyncInsights", shared.ErrValidation, "validation failed", err)
	}

	started := time.Now()
	result := &SyncInsightsResult{}

	for _, subreddit := range cmd.Subreddits {
		posts, err := h.fetcher.FetchNewPosts(ctx, subreddit, cmd.PostsPerSubreddit)
		if err != nil {
			result.FailedSubreddits = append(result.FailedSubreddits, subreddit)
			continue
		}
		result.Fetched += len(posts)

		for _, post := range posts {
			theme, ok := insights.Classify(post)
			if !ok {
				continue
			}
			result.Matched++

			post.Theme = theme
			if post.ScrapedAt.IsZero() {
				post.ScrapedAt = time.Now().UTC()
			}

			inserted, err := h.repo.Upsert(ctx, post)
			if err != nil {
				return nil, fmt.Errorf("sync_insights: failed to store post %s: %w", post.ID, err)
			}
			if inserted {
				result.Stored++
			}
		}
	}

	if len(result.FailedSubreddits) == len(cmd.Subreddits) {
		return nil, shared.WrapError("command", "SyncInsights", shared.ErrExternalService,
			"all subreddit fetches failed", nil)
	}

	if h.cache != nil && result.Stored > 0 {
		_ = h.cache.InvalidateAll(ctx)
	}

	result.Duration = time.Since(started)

	event := shared.NewInsightsSyncedEvent(
		fmt.Sprintf("sync_%d", started.UnixNano()),
		cmd.Subreddits, result.Fetched, result.Matched, result.Stored,
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return result, nil
}
