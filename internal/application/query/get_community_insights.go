package query

import (
	"context"
	"errors"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
	"github.com/embedpath/hardwarehub-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COMMUNITY INSIGHTS QUERY
// Возвращает ленту вопросов сообщества, с фильтром по теме и счётчиками
// тем для навигации. Лента читается через кеш (cache-aside).
// ══════════════════════════════════════════════════════════════════════════════

// InsightsCacheReader - порт кеша ленты инсайтов.
type InsightsCacheReader interface {
	GetPosts(ctx context.Context, theme insights.Theme) ([]insights.Post, error)
	SetPosts(ctx context.Context, theme insights.Theme, posts []insights.Post) error
}

// GetCommunityInsightsQuery содержит параметры запроса ленты.
type GetCommunityInsightsQuery struct {
	// Theme - фильтр по теме (пустая строка = все темы).
	Theme string

	// Limit - количество записей (по умолчанию 25, максимум 100).
	Limit int
}

// Validate проверяет и нормализует параметры запроса.
func (q *GetCommunityInsightsQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 25
	}
	if q.Limit > 100 {
		q.Limit = 100
	}

	if q.Theme != "" {
		known := false
		for _, t := range insights.Themes() {
			if t.String() == q.Theme {
				known = true
				break
			}
		}
		if !known {
			return errors.New("unknown theme: " + q.Theme)
		}
	}
	return nil
}

// CommunityPostDTO - пост в ответе ленты.
type CommunityPostDTO struct {
	// ID - внешний идентификатор поста.
	ID string `json:"id"`

	// Subreddit - сообщество-источник.
	Subreddit string `json:"subreddit"`

	// Title - заголовок.
	Title string `json:"title"`

	// Score - рейтинг на момент сбора.
	Score int `json:"score"`

	// NumComments - комментариев на момент сбора.
	NumComments int `json:"num_comments"`

	// URL - постоянная ссылка.
	URL string `json:"url"`

	// Theme - назначенная тема.
	Theme string `json:"theme"`

	// ScrapedAt - время сбора.
	ScrapedAt time.Time `json:"scraped_at"`

	// Age - человекочитаемая давность сбора ("2h ago").
	Age string `json:"age"`
}

// GetCommunityInsightsResult содержит результат запроса ленты.
type GetCommunityInsightsResult struct {
	// Posts - посты, новые первыми.
	Posts []CommunityPostDTO `json:"posts"`

	// Theme - тема, по которой фильтровали (пустая = все).
	Theme string `json:"theme,omitempty"`

	// ThemeCounts - количество постов по каждой теме.
	ThemeCounts map[string]int `json:"theme_counts"`

	// FromCache - обслужена ли лента из кеша.
	FromCache bool `json:"-"`
}

// GetCommunityInsightsHandler обрабатывает запрос ленты.
type GetCommunityInsightsHandler struct {
	repo  insights.Repository
	cache InsightsCacheReader
}

// NewGetCommunityInsightsHandler создаёт новый обработчик.
func NewGetCommunityInsightsHandler(repo insights.Repository, cache InsightsCacheReader) *GetCommunityInsightsHandler {
	return &GetCommunityInsightsHandler{
		repo:  repo,
		cache: cache,
	}
}

// Handle выполняет запрос ленты.
func (h *GetCommunityInsightsHandler) Handle(ctx context.Context, query GetCommunityInsightsQuery) (*GetCommunityInsightsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetCommunityInsights", shared.ErrValidation, err.Error(), err)
	}

	theme := insights.Theme(query.Theme)

	posts, fromCache, err := h.loadPosts(ctx, theme, query.Limit)
	if err != nil {
		return nil, err
	}

	counts, err := h.repo.CountByTheme(ctx)
	if err != nil {
		return nil, err
	}

	result := &GetCommunityInsightsResult{
		Posts:       make([]CommunityPostDTO, 0, len(posts)),
		Theme:       query.Theme,
		ThemeCounts: make(map[string]int, len(counts)),
		FromCache:   fromCache,
	}

	for _, p := range posts {
		result.Posts = append(result.Posts, CommunityPostDTO{
			ID:          p.ID,
			Subreddit:   p.Subreddit,
			Title:       p.Title,
			Score:       p.Score,
			NumComments: p.NumComments,
			URL:         p.URL,
			Theme:       p.Theme.String(),
			ScrapedAt:   p.ScrapedAt,
			Age:         timeutil.FormatRelative(p.ScrapedAt),
		})
	}
	for t, n := range counts {
		result.ThemeCounts[t.String()] = n
	}

	return result, nil
}

// loadPosts читает ленту: кеш, затем хранилище с обратной записью в кеш.
// Кешируется полная выборка лимита по умолчанию; нестандартные лимиты
// идут мимо кеша.
func (h *GetCommunityInsightsHandler) loadPosts(ctx context.Context, theme insights.Theme, limit int) ([]insights.Post, bool, error) {
	cacheable := h.cache != nil && limit == 25

	if cacheable {
		if cached, err := h.cache.GetPosts(ctx, theme); err == nil && cached != nil {
			return cached, true, nil
		}
	}

	var (
		posts []insights.Post
		err   error
	)
	if theme == "" {
		posts, err = h.repo.List(ctx, limit)
	} else {
		posts, err = h.repo.ListByTheme(ctx, theme, limit)
	}
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		_ = h.cache.SetPosts(ctx, theme, posts)
	}

	return posts, false, nil
}
