package query

import (
	"context"
	"errors"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNER PROGRESS QUERY
// Возвращает панель прогресса: уровень, завершённые уроки и треки,
// продвижение по каждому треку. Читает через кеш (cache-aside).
// ══════════════════════════════════════════════════════════════════════════════

// ProgressCacheReader - порт кеша прогресса. Любая ошибка Get трактуется
// как промах; Set - best effort.
type ProgressCacheReader interface {
	Get(ctx context.Context, learnerID shared.LearnerID) (*learner.Progress, error)
	Set(ctx context.Context, progress *learner.Progress) error
}

// GetLearnerProgressQuery содержит параметры запроса прогресса.
type GetLearnerProgressQuery struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string
}

// PathProgressDTO - продвижение по одному треку.
type PathProgressDTO struct {
	// PathID - идентификатор трека.
	PathID string `json:"path_id"`

	// CompletedLessons - завершено уроков в треке.
	CompletedLessons int `json:"completed_lessons"`

	// TotalLessons - всего уроков в треке.
	TotalLessons int `json:"total_lessons"`

	// Completed - закрыт ли трек.
	Completed bool `json:"completed"`
}

// GetLearnerProgressResult содержит результат запроса прогресса.
type GetLearnerProgressResult struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string `json:"learner_id"`

	// Tier - текущий уровень.
	Tier string `json:"tier"`

	// CompletedLessons - завершённые уроки (отсортированы).
	CompletedLessons []int `json:"completed_lessons"`

	// CompletedPaths - закрытые треки (отсортированы).
	CompletedPaths []string `json:"completed_paths"`

	// Paths - продвижение по каждому известному треку.
	Paths []PathProgressDTO `json:"paths"`

	// UpdatedAt - время последнего изменения прогресса.
	UpdatedAt time.Time `json:"updated_at"`

	// FromCache - обслужен ли запрос из кеша.
	FromCache bool `json:"-"`
}

// GetLearnerProgressHandler обрабатывает запрос прогресса.
type GetLearnerProgressHandler struct {
	catalog *catalog.Catalog
	store   learner.ProgressStore
	cache   ProgressCacheReader
}

// NewGetLearnerProgressHandler создаёт новый обработчик.
func NewGetLearnerProgressHandler(
	cat *catalog.Catalog,
	store learner.ProgressStore,
	cache ProgressCacheReader,
) *GetLearnerProgressHandler {
	return &GetLearnerProgressHandler{
		catalog: cat,
		store:   store,
		cache:   cache,
	}
}

// Handle выполняет запрос прогресса.
// Учащийся без записи прогресса получает свежее состояние beginner,
// а не ошибку: отсутствие записи и пустой прогресс неразличимы снаружи.
func (h *GetLearnerProgressHandler) Handle(ctx context.Context, query GetLearnerProgressQuery) (*GetLearnerProgressResult, error) {
	learnerID, err := shared.NewLearnerID(query.LearnerID)
	if err != nil {
		return nil, err
	}

	progress, fromCache, err := h.load(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	result := &GetLearnerProgressResult{
		LearnerID:        learnerID.String(),
		Tier:             progress.Tier.String(),
		CompletedLessons: make([]int, 0, len(progress.CompletedLessons)),
		CompletedPaths:   make([]string, 0, len(progress.CompletedPaths)),
		UpdatedAt:        progress.UpdatedAt,
		FromCache:        fromCache,
	}

	for _, id := range progress.CompletedLessonIDs() {
		result.CompletedLessons = append(result.CompletedLessons, id.Int())
	}
	for _, id := range progress.CompletedPathIDs() {
		result.CompletedPaths = append(result.CompletedPaths, id.String())
	}

	for _, path := range h.catalog.Paths() {
		dto := PathProgressDTO{
			PathID:       path.ID.String(),
			TotalLessons: len(path.Lessons),
			Completed:    progress.HasCompletedPath(path.ID),
		}
		for _, l := range path.Lessons {
			if progress.IsCompleted(l.ID) {
				dto.CompletedLessons++
			}
		}
		result.Paths = append(result.Paths, dto)
	}

	return result, nil
}

// load читает прогресс: кеш, затем хранилище с обратной записью в кеш.
func (h *GetLearnerProgressHandler) load(ctx context.Context, learnerID shared.LearnerID) (*learner.Progress, bool, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, learnerID); err == nil && cached != nil {
			return cached, true, nil
		}
	}

	progress, err := h.store.Get(ctx, learnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return learner.NewProgress(learnerID), false, nil
		}
		return nil, false, err
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, progress)
	}

	return progress, false, nil
}
