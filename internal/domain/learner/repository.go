package learner

import (
	"context"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над учётными записями учащихся.
type Repository interface {
	// Create создаёт нового учащегося.
	// Возвращает shared.ErrLearnerAlreadyExists, если email уже занят.
	Create(ctx context.Context, l *Learner) error

	// GetByID возвращает учащегося по внутреннему ID.
	// Возвращает shared.ErrLearnerNotFound, если учащийся не найден.
	GetByID(ctx context.Context, id shared.LearnerID) (*Learner, error)

	// GetByEmail возвращает учащегося по email.
	// Возвращает shared.ErrLearnerNotFound, если учащийся не найден.
	GetByEmail(ctx context.Context, email shared.Email) (*Learner, error)

	// Exists проверяет существование учащегося по ID.
	Exists(ctx context.Context, id shared.LearnerID) (bool, error)
}

// ProgressStore определяет контракт долговременного хранения прогресса.
//
// Требования к реализации:
//   - Get для неизвестного учащегося возвращает shared.ErrLearnerNotFound
//     (вызывающий решает, создавать ли свежий прогресс)
//   - Put выполняет atomic get-then-put для одного учащегося; хранилище
//     обязано обеспечивать уникальность пар (learner_id, lesson_id)
//   - ошибки ввода-вывода пробрасываются наверх как есть - молчаливая
//     потеря завершения недопустима
type ProgressStore interface {
	// Get возвращает прогресс учащегося.
	Get(ctx context.Context, learnerID shared.LearnerID) (*Progress, error)

	// Put сохраняет прогресс учащегося целиком.
	Put(ctx context.Context, learnerID shared.LearnerID, progress *Progress) error
}

// RecentlyActive опционально поддерживается реализациями ProgressStore
// для джобы сверки: возвращает учащихся, прогресс которых менялся недавно.
type RecentlyActive interface {
	// RecentlyActive возвращает до limit идентификаторов учащихся,
	// упорядоченных по времени последнего изменения (новые первыми).
	RecentlyActive(ctx context.Context, limit int) ([]shared.LearnerID, error)
}
