package command

import (
	"context"
	"errors"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD COMPLETION COMMAND
// Учитывает завершение урока: первый раз двигает прогресс и может закрыть
// трек и повысить уровень; повтор - идемпотентный no-op.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressInvalidator сбрасывает кешированный прогресс после записи.
type ProgressInvalidator interface {
	// Invalidate удаляет кешированный прогресс учащегося.
	Invalidate(ctx context.Context, learnerID shared.LearnerID) error
}

// RecordCompletionCommand содержит данные о завершении урока.
type RecordCompletionCommand struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string

	// LessonID - идентификатор завершённого урока.
	LessonID int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c RecordCompletionCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("record_completion: learner_id is required")
	}
	return nil
}

// RecordCompletionResult содержит результат учёта завершения.
type RecordCompletionResult struct {
	// FirstCompletion - true, если урок завершён впервые. Повтор и
	// неизвестный урок дают false при пустом остальном результате.
	FirstCompletion bool `json:"first_completion"`

	// UnlockedPaths - треки, закрытые этим завершением.
	UnlockedPaths []string `json:"unlocked_paths"`

	// PromotedTo - новый уровень, если произошло повышение.
	PromotedTo string `json:"promoted_to,omitempty"`

	// Events - порождённые доменные события.
	Events []shared.Event `json:"-"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordCompletionHandler обрабатывает команду завершения урока.
type RecordCompletionHandler struct {
	tracker        *learner.Tracker
	progressCache  ProgressInvalidator
	eventPublisher shared.EventPublisher
}

// NewRecordCompletionHandler создаёт новый обработчик.
func NewRecordCompletionHandler(
	tracker *learner.Tracker,
	progressCache ProgressInvalidator,
	eventPublisher shared.EventPublisher,
) *RecordCompletionHandler {
	return &RecordCompletionHandler{
		tracker:        tracker,
		progressCache:  progressCache,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет учёт завершения урока.
func (h *RecordCompletionHandler) Handle(ctx context.Context, cmd RecordCompletionCommand) (*RecordCompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "RecordCompletion", shared.ErrValidation, "validation failed", err)
	}

	learnerID, err := shared.NewLearnerID(cmd.LearnerID)
	if err != nil {
		return nil, err
	}
	lessonID := shared.LessonID(cmd.LessonID)

	outcome, err := h.tracker.RecordCompletion(ctx, learnerID, lessonID)
	if err != nil {
		return nil, err
	}

	result := &RecordCompletionResult{
		FirstCompletion: outcome.FirstCompletion,
		UnlockedPaths:   make([]string, 0, len(outcome.UnlockedPaths)),
	}

	// Повтор и неизвестный урок не меняют состояние - кеш и события не трогаем.
	if !outcome.FirstCompletion {
		return result, nil
	}

	if h.progressCache != nil {
		_ = h.progressCache.Invalidate(ctx, learnerID)
	}

	result.Events = append(result.Events,
		h.withCorrelation(shared.NewLessonCompletedEvent(learnerID, lessonID, outcome.PathID), cmd.CorrelationID))

	for _, pathID := range outcome.UnlockedPaths {
		result.UnlockedPaths = append(result.UnlockedPaths, pathID.String())
		result.Events = append(result.Events,
			h.withCorrelation(shared.NewPathUnlockedEvent(learnerID, pathID), cmd.CorrelationID))
	}

	if outcome.Promoted != nil {
		result.PromotedTo = outcome.Promoted.String()
		result.Events = append(result.Events,
			h.withCorrelation(shared.NewTierPromotedEvent(learnerID, outcome.PromotedFrom, *outcome.Promoted), cmd.CorrelationID))
	}

	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}

// withCorrelation проставляет correlation ID на событие нужного типа.
func (h *RecordCompletionHandler) withCorrelation(event shared.Event, correlationID string) shared.Event {
	if correlationID == "" {
		return event
	}
	switch e := event.(type) {
	case shared.LessonCompletedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(correlationID)
		return e
	case shared.PathUnlockedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(correlationID)
		return e
	case shared.TierPromotedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(correlationID)
		return e
	default:
		return event
	}
}
