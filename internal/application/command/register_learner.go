// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Регистрирует нового учащегося: учётная запись + свежий прогресс.
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator выдаёт новые идентификаторы учащихся.
type IDGenerator interface {
	// NewLearnerID возвращает новый уникальный идентификатор.
	NewLearnerID() shared.LearnerID
}

// RegisterLearnerCommand содержит данные для регистрации.
type RegisterLearnerCommand struct {
	// Email - адрес электронной почты (уникальный).
	Email string

	// DisplayName - отображаемое имя.
	DisplayName string

	// Password - пароль в открытом виде; хешируется перед сохранением.
	Password string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c RegisterLearnerCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("register_learner: email is required")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("register_learner: display_name is required")
	}
	if len(c.Password) < 8 {
		return errors.New("register_learner: password must be at least 8 chars")
	}
	return nil
}

// RegisterLearnerResult содержит результат регистрации.
type RegisterLearnerResult struct {
	// LearnerID - идентификатор созданного учащегося.
	LearnerID shared.LearnerID

	// Email - нормализованный email.
	Email shared.Email

	// Tier - стартовый уровень (всегда beginner).
	Tier shared.SkillTier
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerHandler обрабатывает команду регистрации.
type RegisterLearnerHandler struct {
	learnerRepo    learner.Repository
	idGen          IDGenerator
	eventPublisher shared.EventPublisher
}

// NewRegisterLearnerHandler создаёт новый обработчик.
func NewRegisterLearnerHandler(
	learnerRepo learner.Repository,
	idGen IDGenerator,
	eventPublisher shared.EventPublisher,
) *RegisterLearnerHandler {
	return &RegisterLearnerHandler{
		learnerRepo:    learnerRepo,
		idGen:          idGen,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет регистрацию учащегося.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "RegisterLearner", shared.ErrValidation, "validation failed", err)
	}

	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register_learner: failed to hash password: %w", err)
	}

	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:             h.idGen.NewLearnerID(),
		Email:          email,
		DisplayName:    cmd.DisplayName,
		CredentialHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	if err := h.learnerRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	event := shared.NewLearnerRegisteredEvent(l.ID, l.Email, l.DisplayName, shared.TierBeginner)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RegisterLearnerResult{
		LearnerID: l.ID,
		Email:     l.Email,
		Tier:      shared.TierBeginner,
	}, nil
}
