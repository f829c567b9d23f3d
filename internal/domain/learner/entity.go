// Package learner содержит доменную модель учащегося платформы EmbedPath.
package learner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNER
// ══════════════════════════════════════════════════════════════════════════════

// Learner - учётная запись учащегося платформы.
type Learner struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID shared.LearnerID

	// Email - адрес электронной почты (уникальный).
	Email shared.Email

	// DisplayName - отображаемое имя.
	DisplayName string

	// CredentialHash - bcrypt-хеш учётных данных.
	CredentialHash string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidEmail - невалидный email.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyCredentialHash - пустой хеш учётных данных.
	ErrEmptyCredentialHash = errors.New("credential hash is required")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewLearnerParams содержит параметры для создания нового учащегося.
type NewLearnerParams struct {
	ID             shared.LearnerID
	Email          shared.Email
	DisplayName    string
	CredentialHash string
}

// NewLearner создаёт нового учащегося с валидацией всех полей.
func NewLearner(params NewLearnerParams) (*Learner, error) {
	if params.ID.IsEmpty() || !params.ID.IsValid() {
		return nil, shared.ErrInvalidLearnerID
	}

	if !params.Email.IsValid() {
		return nil, ErrInvalidEmail
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	if params.CredentialHash == "" {
		return nil, ErrEmptyCredentialHash
	}

	now := time.Now().UTC()

	return &Learner{
		ID:             params.ID,
		Email:          params.Email.Normalize(),
		DisplayName:    displayName,
		CredentialHash: params.CredentialHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// String возвращает строковое представление для логирования.
// Хеш учётных данных намеренно не включается.
func (l *Learner) String() string {
	return fmt.Sprintf("Learner{ID: %s, Email: %s, Name: %s}", l.ID, l.Email, l.DisplayName)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// Progress представляет полный прогресс учащегося: текущий уровень,
// множество завершённых уроков и множество закрытых треков.
//
// Состояние меняется только двумя переходами: Complete (множества растут,
// уровень не понижается) и Reset (возврат в начальное состояние
// {beginner, ∅, ∅}). Других переходов нет; терминального состояния нет -
// advanced со всеми уроками остаётся валидным установившимся состоянием,
// принимающим (вхолостую) новые завершения.
type Progress struct {
	// LearnerID - идентификатор учащегося.
	LearnerID shared.LearnerID

	// Tier - текущий уровень.
	Tier shared.SkillTier

	// CompletedLessons - множество завершённых уроков.
	CompletedLessons map[shared.LessonID]struct{}

	// CompletedPaths - множество закрытых треков.
	CompletedPaths map[shared.PathID]struct{}

	// CreatedAt - время первого события завершения.
	CreatedAt time.Time

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// NewProgress создаёт свежий прогресс: уровень beginner, пустые множества.
func NewProgress(learnerID shared.LearnerID) *Progress {
	now := time.Now().UTC()
	return &Progress{
		LearnerID:        learnerID,
		Tier:             shared.TierBeginner,
		CompletedLessons: make(map[shared.LessonID]struct{}),
		CompletedPaths:   make(map[shared.PathID]struct{}),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsCompleted проверяет, завершён ли урок.
func (p *Progress) IsCompleted(lessonID shared.LessonID) bool {
	_, ok := p.CompletedLessons[lessonID]
	return ok
}

// Complete добавляет урок в множество завершённых.
// Возвращает true, если урок завершён впервые (идемпотентность:
// повторное добавление - no-op и возвращает false).
func (p *Progress) Complete(lessonID shared.LessonID) bool {
	if p.IsCompleted(lessonID) {
		return false
	}
	p.CompletedLessons[lessonID] = struct{}{}
	p.UpdatedAt = time.Now().UTC()
	return true
}

// HasCompletedPath проверяет, закрыт ли трек.
func (p *Progress) HasCompletedPath(pathID shared.PathID) bool {
	_, ok := p.CompletedPaths[pathID]
	return ok
}

// MarkPathCompleted добавляет трек в множество закрытых.
// Возвращает true, если трек закрыт впервые.
func (p *Progress) MarkPathCompleted(pathID shared.PathID) bool {
	if p.HasCompletedPath(pathID) {
		return false
	}
	p.CompletedPaths[pathID] = struct{}{}
	p.UpdatedAt = time.Now().UTC()
	return true
}

// Promote повышает уровень ровно на одну ступень.
// Возвращает false, если учащийся уже на advanced (или уровень
// нераспознан - такие уровни не повышаются автоматически).
func (p *Progress) Promote() bool {
	next, ok := p.Tier.Next()
	if !ok {
		return false
	}
	p.Tier = next
	p.UpdatedAt = time.Now().UTC()
	return true
}

// OverrideTier административно устанавливает произвольный известный уровень.
// Единственный путь понижения уровня, кроме полного сброса.
func (p *Progress) OverrideTier(tier shared.SkillTier) error {
	normalized := tier.Normalize()
	if !normalized.IsKnown() {
		return shared.NewDomainError("learner", "OverrideTier", shared.ErrInvalidInput,
			fmt.Sprintf("unknown skill tier: %q", tier))
	}
	p.Tier = normalized
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Reset возвращает прогресс в начальное состояние {beginner, ∅, ∅}.
// Необратимо; подтверждение - забота уровня представления.
func (p *Progress) Reset() {
	p.Tier = shared.TierBeginner
	p.CompletedLessons = make(map[shared.LessonID]struct{})
	p.CompletedPaths = make(map[shared.PathID]struct{})
	p.UpdatedAt = time.Now().UTC()
}

// CompletedLessonIDs возвращает отсортированный срез завершённых уроков.
func (p *Progress) CompletedLessonIDs() []shared.LessonID {
	ids := make([]shared.LessonID, 0, len(p.CompletedLessons))
	for id := range p.CompletedLessons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CompletedPathIDs возвращает отсортированный срез закрытых треков.
func (p *Progress) CompletedPathIDs() []shared.PathID {
	ids := make([]shared.PathID, 0, len(p.CompletedPaths))
	for id := range p.CompletedPaths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone создаёт глубокую копию прогресса.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}

	clone := &Progress{
		LearnerID:        p.LearnerID,
		Tier:             p.Tier,
		CompletedLessons: make(map[shared.LessonID]struct{}, len(p.CompletedLessons)),
		CompletedPaths:   make(map[shared.PathID]struct{}, len(p.CompletedPaths)),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	for id := range p.CompletedLessons {
		clone.CompletedLessons[id] = struct{}{}
	}
	for id := range p.CompletedPaths {
		clone.CompletedPaths[id] = struct{}{}
	}
	return clone
}

// String возвращает строковое представление для логирования.
func (p *Progress) String() string {
	return fmt.Sprintf(
		"Progress{Learner: %s, Tier: %s, Lessons: %d, Paths: %d}",
		p.LearnerID, p.Tier, len(p.CompletedLessons), len(p.CompletedPaths),
	)
}
