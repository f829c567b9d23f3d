// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LESSON CATALOG QUERY
// Возвращает уроки, доступные учащемуся на его уровне. Уровень берётся из
// прогресса; анонимный запрос видит каталог уровня beginner.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressReader - порт чтения прогресса (хранилище или кеш перед ним).
type ProgressReader interface {
	// Get возвращает прогресс учащегося.
	Get(ctx context.Context, learnerID shared.LearnerID) (*learner.Progress, error)
}

// GetLessonCatalogQuery содержит параметры запроса каталога.
type GetLessonCatalogQuery struct {
	// LearnerID - идентификатор учащегося (пустой = анонимный beginner).
	LearnerID string

	// IncludeLocked - включать ли недоступные уроки (с пометкой).
	IncludeLocked bool
}

// LessonDTO - урок в ответе каталога.
type LessonDTO struct {
	// ID - идентификатор урока.
	ID int `json:"id"`

	// Title - заголовок урока.
	Title string `json:"title"`

	// RequiredTier - минимальный уровень доступа.
	RequiredTier string `json:"required_tier"`

	// PathID - трек урока (пустой = вне треков).
	PathID string `json:"path_id,omitempty"`

	// Position - позиция в треке.
	Position int `json:"position"`

	// Accessible - доступен ли урок на уровне запросившего.
	Accessible bool `json:"accessible"`

	// Completed - завершён ли урок запросившим.
	Completed bool `json:"completed"`
}

// GetLessonCatalogResult содержит результат запроса каталога.
type GetLessonCatalogResult struct {
	// Tier - уровень, для которого построен каталог.
	Tier string `json:"tier"`

	// Lessons - уроки в порядке каталога.
	Lessons []LessonDTO `json:"lessons"`

	// AccessibleCount - сколько уроков доступно.
	AccessibleCount int `json:"accessible_count"`

	// TotalCount - сколько уроков в каталоге всего.
	TotalCount int `json:"total_count"`
}

// GetLessonCatalogHandler обрабатывает запрос каталога.
type GetLessonCatalogHandler struct {
	catalog  *catalog.Catalog
	progress ProgressReader
}

// NewGetLessonCatalogHandler создаёт новый обработчик.
func NewGetLessonCatalogHandler(cat *catalog.Catalog, progress ProgressReader) *GetLessonCatalogHandler {
	return &GetLessonCatalogHandler{
		catalog:  cat,
		progress: progress,
	}
}

// Handle выполняет запрос каталога.
func (h *GetLessonCatalogHandler) Handle(ctx context.Context, query GetLessonCatalogQuery) (*GetLessonCatalogResult, error) {
	tier := shared.TierBeginner
	var progress *learner.Progress

	if query.LearnerID != "" {
		learnerID, err := shared.NewLearnerID(query.LearnerID)
		if err != nil {
			return nil, err
		}

		progress, err = h.progress.Get(ctx, learnerID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			// Зарегистрирован, но ещё без прогресса - beginner.
			progress = nil
		}
		if progress != nil {
			tier = progress.Tier
		}
	}

	result := &GetLessonCatalogResult{
		Tier:       tier.String(),
		Lessons:    make([]LessonDTO, 0, h.catalog.Len()),
		TotalCount: h.catalog.Len(),
	}

	for _, l := range h.catalog.Lessons() {
		accessible := catalog.CanAccess(tier, l.RequiredTier)
		if !accessible && !query.IncludeLocked {
			continue
		}

		dto := LessonDTO{
			ID:           l.ID.Int(),
			Title:        l.Title,
			RequiredTier: l.RequiredTier.String(),
			PathID:       l.PathID.String(),
			Position:     l.Position,
			Accessible:   accessible,
		}
		if progress != nil {
			dto.Completed = progress.IsCompleted(l.ID)
		}

		result.Lessons = append(result.Lessons, dto)
		if accessible {
			result.AccessibleCount++
		}
	}

	return result, nil
}
