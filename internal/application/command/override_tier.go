package command

import (
	"context"
	"errors"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// OVERRIDE TIER COMMAND
// Административная установка уровня. Единственный способ понизить уровень,
// кроме полного сброса; требует указания, кто выполнил операцию.
// ══════════════════════════════════════════════════════════════════════════════

// OverrideTierCommand содержит данные для установки уровня.
type OverrideTierCommand struct {
	// LearnerID - идентификатор учащегося.
	LearnerID string

	// Tier - целевой уровень (beginner | intermediate | advanced).
	Tier string

	// Actor - кто выполняет операцию (для аудита).
	Actor string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c OverrideTierCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("override_tier: learner_id is required")
	}
	if c.Tier == "" {
		return errors.New("override_tier: tier is required")
	}
	if c.Actor == "" {
		return errors.New("override_tier: actor is required")
	}
	return nil
}

// OverrideTierResult содержит результат операции.
type OverrideTierResult struct {
	// OldTier - уровень до операции.
	OldTier string `json:"old_tier"`

	// NewTier - установленный уровень.
	NewTier string `json:"new_tier"`
}

// OverrideTierHandler обрабатывает команду установки уровня.
type OverrideTierHandler struct {
	tracker        *learner.Tracker
	progressCache  ProgressInvalidator
	eventPublisher shared.EventPublisher
}

// NewOverrideTierHandler создаёт новый обработчик.
func NewOverrideTierHandler(
	tracker *learner.Tracker,
	progressCache ProgressInvalidator,
	eventPublisher shared.EventPublisher,
) *OverrideTierHandler {
	return &OverrideTierHandler{
		tracker:        tracker,
		progressCache:  progressCache,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет установку уровня.
func (h *OverrideTierHandler) Handle(ctx context.Context, cmd OverrideTierCommand) (*OverrideTierResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "OverrideTier", shared.ErrValidation, "validation failed", err)
	}

	learnerID, err := shared.NewLearnerID(cmd.LearnerID)
	if err != nil {
		return nil, err
	}

	tier, err := shared.ParseSkillTier(cmd.Tier)
	if err != nil {
		return nil, err
	}

	oldTier, err := h.tracker.OverrideTier(ctx, learnerID, tier)
	if err != nil {
		return nil, err
	}

	if h.progressCache != nil {
		_ = h.progressCache.Invalidate(ctx, learnerID)
	}

	event := shared.NewTierOverriddenEvent(learnerID, oldTier, tier, cmd.Actor)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &OverrideTierResult{
		OldTier: oldTier.String(),
		NewTier: tier.String(),
	}, nil
}
