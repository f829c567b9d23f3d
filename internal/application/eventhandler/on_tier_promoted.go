package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON TIER PROMOTED HANDLER
// Сообщает учащемуся о повышении уровня и о том, что ему открылись новые
// уроки каталога. Повышение монотонно, событие для пары уровней одно.
// ═══════════════════════════════════════════════════════════════════════════

// OnTierPromotedHandler обрабатывает событие повышения уровня.
type OnTierPromotedHandler struct {
	learnerRepo learner.Repository
	notifier    Notifier
	logger      *slog.Logger
}

// NewOnTierPromotedHandler создаёт новый обработчик.
func NewOnTierPromotedHandler(
	learnerRepo learner.Repository,
	notifier Notifier,
	logger *slog.Logger,
) *OnTierPromotedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnTierPromotedHandler{
		learnerRepo: learnerRepo,
		notifier:    notifier,
		logger:      logger.With("handler", "on_tier_promoted"),
	}
}

// Handle обрабатывает событие повышения уровня.
// Реализует интерфейс shared.EventHandler.
func (h *OnTierPromotedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	promoted, ok := event.(shared.TierPromotedEvent)
	if !ok {
		h.logger.Warn("received non-TierPromotedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	learnerID := shared.LearnerID(promoted.AggregateID())

	h.logger.Info("processing tier promoted event",
		"learner_id", learnerID,
		"old_tier", promoted.OldTier,
		"new_tier", promoted.NewTier,
	)

	l, err := h.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		h.logger.Error("failed to get learner",
			"learner_id", learnerID,
			"error", err,
		)
		return fmt.Errorf("get learner: %w", err)
	}

	if h.notifier != nil {
		message := h.formatMessage(l.DisplayName, promoted)
		if err := h.notifier.Notify(ctx, learnerID, "Новый уровень", message); err != nil {
			h.logger.Warn("failed to send notification",
				"learner_id", learnerID,
				"error", err,
			)
		}
	}

	return nil
}

// formatMessage формирует текст уведомления о повышении.
func (h *OnTierPromotedHandler) formatMessage(displayName string, event shared.TierPromotedEvent) string {
	switch shared.SkillTier(event.NewTier) {
	case shared.TierAdvanced:
		return fmt.Sprintf("%s, ты достиг уровня advanced - весь каталог теперь открыт!", displayName)
	default:
		return fmt.Sprintf("%s, твой уровень вырос: %s -> %s. В каталоге появились новые уроки.",
			displayName, event.OldTier, event.NewTier)
	}
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnTierPromotedHandler) EventType() shared.EventType {
	return shared.EventTierPromoted
}
