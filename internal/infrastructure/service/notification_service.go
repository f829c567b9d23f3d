package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/persistence/redis"
	"github.com/embedpath/hardwarehub-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION SERVICE
// Доставляет уведомления учащимся. Каналов доставки у платформы пока нет -
// уведомления публикуются в Redis pub/sub (их подбирает фронтенд по
// WebSocket-мосту) и дублируются в лог.
// ══════════════════════════════════════════════════════════════════════════════

// notificationMessage - формат сообщения в pub/sub канале.
type notificationMessage struct {
	LearnerID string    `json:"learner_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

// NotificationService реализует eventhandler.Notifier.
type NotificationService struct {
	cache  *redis.Cache
	logger *slog.Logger
}

// NewNotificationService создаёт новый сервис уведомлений.
// Cache может быть nil - тогда уведомления только логируются.
func NewNotificationService(cache *redis.Cache, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationService{
		cache:  cache,
		logger: logger.With("component", "notifications"),
	}
}

// Notify отправляет учащемуся уведомление.
func (s *NotificationService) Notify(ctx context.Context, learnerID shared.LearnerID, subject, message string) error {
	s.logger.Info("notification",
		"learner_id", learnerID,
		"subject", subject,
		"message", message,
	)

	if s.cache == nil {
		return nil
	}

	return s.cache.Publish(ctx, redis.PubSubChannel("notifications"), notificationMessage{
		LearnerID: learnerID.String(),
		Subject:   subject,
		Message:   message,
		SentAt:    timeutil.Now(),
	})
}
