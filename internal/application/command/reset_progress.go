package command

import (
	"context"
	"errors"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// Сбрасывает прогресс учащегося в начальное состояние {beginner, ∅, ∅}.
// Необратимо; подтверждение запрашивает представление, не этот слой.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand содержит данные для сброса.
type ResetProgressCommand struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c ResetProgressCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("reset_progress: learner_id is required")
	}
	return nil
}

// ResetProgressResult содержит сведения о стёртом состоянии.
type ResetProgressResult struct {
	// PreviousTier - уровень до сброса.
	PreviousTier string `json:"previous_tier"`

	// LessonsForgotten - сколько завершений было стёрто.
	LessonsForgotten int `json:"lessons_forgotten"`
}

// ResetProgressHandler обрабатывает команду сброса.
type ResetProgressHandler struct {
	tracker        *learner.Tracker
	progressCache  ProgressInvalidator
	eventPublisher shared.EventPublisher
}

// NewResetProgressHandler создаёт новый обработчик.
func NewResetProgressHandler(
	tracker *learner.Tracker,
	progressCache ProgressInvalidator,
	eventPublisher shared.EventPublisher,
) *ResetProgressHandler {
	return &ResetProgressHandler{
		tracker:        tracker,
		progressCache:  progressCache,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет сброс прогресса.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ResetProgress", shared.ErrValidation, "validation failed", err)
	}

	learnerID, err := shared.NewLearnerID(cmd.LearnerID)
	if err != nil {
		return nil, err
	}

	outcome, err := h.tracker.Reset(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	if h.progressCache != nil {
		_ = h.progressCache.Invalidate(ctx, learnerID)
	}

	event := shared.NewLearnerResetEvent(learnerID, outcome.PreviousTier, outcome.LessonsForgotten)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &ResetProgressResult{
		PreviousTier:     outcome.PreviousTier.String(),
		LessonsForgotten: outcome.LessonsForgotten,
	}, nil
}
