package query

import (
	"context"
	"errors"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LESSON QUIZ QUERY
// Возвращает квиз для урока. Доступ подчиняется той же политике уровней,
// что и сам урок: квиз недоступного урока не выдаётся.
// ══════════════════════════════════════════════════════════════════════════════

// QuizQuestionDTO - один вопрос квиза.
type QuizQuestionDTO struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

// QuizDTO - квиз урока.
type QuizDTO struct {
	// LessonID - урок, к которому относится квиз.
	LessonID int `json:"lesson_id"`

	// Title - заголовок квиза.
	Title string `json:"title"`

	// Questions - вопросы.
	Questions []QuizQuestionDTO `json:"questions"`

	// Demo - true, если квиз из заготовленного набора, а не сгенерирован.
	Demo bool `json:"demo"`
}

// QuizGenerator - порт генератора квизов (реализация в infrastructure).
type QuizGenerator interface {
	// GenerateQuiz возвращает квиз для урока.
	GenerateQuiz(ctx context.Context, lessonID int, lessonTitle, tier string) (*QuizDTO, error)
}

// GetLessonQuizQuery содержит параметры запроса квиза.
type GetLessonQuizQuery struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string

	// LessonID - идентификатор урока.
	LessonID int
}

// GetLessonQuizHandler обрабатывает запрос квиза.
type GetLessonQuizHandler struct {
	catalog   *catalog.Catalog
	progress  ProgressReader
	generator QuizGenerator
}

// NewGetLessonQuizHandler создаёт новый обработчик.
func NewGetLessonQuizHandler(cat *catalog.Catalog, progress ProgressReader, generator QuizGenerator) *GetLessonQuizHandler {
	return &GetLessonQuizHandler{
		catalog:   cat,
		progress:  progress,
		generator: generator,
	}
}

// Handle выполняет запрос квиза.
func (h *GetLessonQuizHandler) Handle(ctx context.Context, query GetLessonQuizQuery) (*QuizDTO, error) {
	lesson, ok := h.catalog.Lesson(shared.LessonID(query.LessonID))
	if !ok {
		return nil, shared.ErrLessonNotFound
	}

	tier := shared.TierBeginner
	if query.LearnerID != "" {
		learnerID, err := shared.NewLearnerID(query.LearnerID)
		if err != nil {
			return nil, err
		}
		progress, err := h.progress.Get(ctx, learnerID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if progress != nil {
			tier = progress.Tier
		}
	}

	if !catalog.CanAccess(tier, lesson.RequiredTier) {
		return nil, shared.NewDomainError("query", "GetLessonQuiz", shared.ErrForbidden,
			"lesson requires tier "+lesson.RequiredTier.String())
	}

	return h.generator.GenerateQuiz(ctx, query.LessonID, lesson.Title, tier.String())
}
