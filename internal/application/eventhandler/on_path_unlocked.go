// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они запускают побочные
// эффекты (уведомления, прогрев кешей), не участвуя в самих командах.
// Ошибка обработчика никогда не откатывает породившую событие запись.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// Notifier доставляет уведомление учащемуся. Реализация - в infrastructure;
// доставка best effort, сбой логируется и не пробрасывается.
type Notifier interface {
	// Notify отправляет учащемуся сообщение с темой.
	Notify(ctx context.Context, learnerID shared.LearnerID, subject, message string) error
}

// ═══════════════════════════════════════════════════════════════════════════
// ON PATH UNLOCKED HANDLER
// Поздравляет учащегося с закрытием трека. Событие приходит ровно один раз
// на пару (учащийся, трек), поэтому дедупликация здесь не нужна.
// ═══════════════════════════════════════════════════════════════════════════

// OnPathUnlockedHandler обрабатывает событие закрытия трека.
type OnPathUnlockedHandler struct {
	learnerRepo learner.Repository
	notifier    Notifier
	logger      *slog.Logger
}

// NewOnPathUnlockedHandler создаёт новый обработчик.
func NewOnPathUnlockedHandler(
	learnerRepo learner.Repository,
	notifier Notifier,
	logger *slog.Logger,
) *OnPathUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnPathUnlockedHandler{
		learnerRepo: learnerRepo,
		notifier:    notifier,
		logger:      logger.With("handler", "on_path_unlocked"),
	}
}

// Handle обрабатывает событие закрытия трека.
// Реализует интерфейс shared.EventHandler.
func (h *OnPathUnlockedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	unlocked, ok := event.(shared.PathUnlockedEvent)
	if !ok {
		h.logger.Warn("received non-PathUnlockedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	learnerID := shared.LearnerID(unlocked.AggregateID())

	h.logger.Info("processing path unlocked event",
		"learner_id", learnerID,
		"path_id", unlocked.PathID,
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
		message := fmt.Sprintf("Поздравляем, %s! Трек %q пройден полностью.",
			l.DisplayName, unlocked.PathID)
		if err := h.notifier.Notify(ctx, learnerID, "Трек пройден", message); err != nil {
			h.logger.Warn("failed to send notification",
				"learner_id", learnerID,
				"error", err,
			)
			// Уведомление не критично - не пробрасываем.
		}
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnPathUnlockedHandler) EventType() shared.EventType {
	return shared.EventPathUnlocked
}
