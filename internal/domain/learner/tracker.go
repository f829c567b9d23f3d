package learner

import (
	"context"
	"errors"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PATH PROGRESS TRACKER
// Доменный сервис учёта прогресса: завершение уроков, закрытие треков,
// автоматическое повышение уровня.
//
// Трекер не публикует события и не пишет логи - он возвращает результат,
// а уровень application решает, что с ним делать. Благодаря этому все
// инварианты (идемпотентность, независимость от порядка, монотонность)
// проверяются чистыми юнит-тестами без инфраструктуры.
// ══════════════════════════════════════════════════════════════════════════════

// Tracker отслеживает прогресс учащихся по каталогу уроков.
type Tracker struct {
	catalog *catalog.Catalog
	store   ProgressStore

	// entryPath - выделенный "входной" трек, по урокам которого
	// оценивается повышение уровня.
	entryPath shared.PathID
}

// NewTracker создаёт новый трекер прогресса.
// Каталог неизменяем; store обязан выполнять контракт ProgressStore.
func NewTracker(cat *catalog.Catalog, store ProgressStore, entryPath shared.PathID) *Tracker {
	return &Tracker{
		catalog:   cat,
		store:     store,
		entryPath: entryPath,
	}
}

// CompletionResult содержит результат учёта одного завершения.
type CompletionResult struct {
	// LessonID - урок, о котором пришло событие.
	LessonID shared.LessonID

	// FirstCompletion - true, если урок завершён впервые.
	// Повторное завершение - no-op: UnlockedPaths пуст, Promoted nil.
	FirstCompletion bool

	// PathID - трек урока (пустой, если урок вне треков).
	PathID shared.PathID

	// UnlockedPaths - треки, закрытые именно этим вызовом.
	UnlockedPaths []shared.PathID

	// Promoted - новый уровень, если вызов привёл к повышению; иначе nil.
	Promoted *shared.SkillTier

	// PromotedFrom - уровень до повышения (имеет смысл при Promoted != nil).
	PromotedFrom shared.SkillTier
}

// ResetResult содержит сведения о сброшенном состоянии.
type ResetResult struct {
	// PreviousTier - уровень до сброса (beginner, если прогресса не было).
	PreviousTier shared.SkillTier

	// LessonsForgotten - сколько завершённых уроков было стёрто.
	LessonsForgotten int
}

// ─────────────────────────────────────────────────────────────────────────────
// RecordCompletion
// ─────────────────────────────────────────────────────────────────────────────

// RecordCompletion учитывает завершение урока учащимся.
//
// Семантика:
//  1. Неизвестный урок - no-op без ошибки: ничего не разблокируется.
//  2. Повторное завершение - no-op: состояние не меняется, хранилище
//     не трогается, результат пуст.
//  3. Первое завершение добавляет урок, затем проверяет закрытие его
//     трека (трек без уроков никогда не считается закрытым) и повышение
//     уровня по входному треку.
//  4. Ошибка хранилища пробрасывается вызывающему - завершение нельзя
//     терять молча; после частичного сбоя безопасна повторная попытка
//     или сверка через CheckAllPathCompletions.
func (t *Tracker) RecordCompletion(ctx context.Context, learnerID shared.LearnerID, lessonID shared.LessonID) (*CompletionResult, error) {
	result := &CompletionResult{LessonID: lessonID}

	lesson, known := t.catalog.Lesson(lessonID)
	if !known {
		return result, nil
	}
	result.PathID = lesson.PathID

	progress, err := t.loadOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	if !progress.Complete(lessonID) {
		// Уже было завершено - идемпотентный повтор.
		return result, nil
	}
	result.FirstCompletion = true

	// Закрытие трека: только трек этого урока мог закрыться.
	if path, ok := t.catalog.PathOf(lessonID); ok {
		if t.pathComplete(path, progress) && progress.MarkPathCompleted(path.ID) {
			result.UnlockedPaths = append(result.UnlockedPaths, path.ID)
		}
	}

	// Повышение уровня. Оцениваем в цикле: одно завершение может закрыть
	// требования сразу нескольких ступеней, если уроки проходились не по
	// порядку, - иначе итоговый уровень зависел бы от порядка вызовов.
	from := progress.Tier
	promoted := false
	for t.promotionEligible(progress) {
		if !progress.Promote() {
			break
		}
		promoted = true
	}
	if promoted {
		newTier := progress.Tier
		result.Promoted = &newTier
		result.PromotedFrom = from
	}

	if err := t.store.Put(ctx, learnerID, progress); err != nil {
		return nil, err
	}

	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CheckAllPathCompletions
// ─────────────────────────────────────────────────────────────────────────────

// CheckAllPathCompletions пересчитывает закрытие всех треков "с нуля" -
// проход сверки для восстановления после частичных сбоев. Результат
// совпадает с тем, что дало бы воспроизведение всех RecordCompletion
// в любом порядке.
//
// Возвращает отсортированный список всех закрытых треков. Обнаруженные
// расхождения (трек фактически закрыт, но не записан; заслуженное, но не
// применённое повышение) исправляются и сохраняются.
func (t *Tracker) CheckAllPathCompletions(ctx context.Context, learnerID shared.LearnerID) ([]shared.PathID, error) {
	progress, err := t.store.Get(ctx, learnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return []shared.PathID{}, nil
		}
		return nil, err
	}

	repaired := false
	for _, path := range t.catalog.Paths() {
		if t.pathComplete(path, progress) && progress.MarkPathCompleted(path.ID) {
			repaired = true
		}
	}

	for t.promotionEligible(progress) {
		if !progress.Promote() {
			break
		}
		repaired = true
	}

	if repaired {
		if err := t.store.Put(ctx, learnerID, progress); err != nil {
			return nil, err
		}
	}

	return progress.CompletedPathIDs(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reset
// ─────────────────────────────────────────────────────────────────────────────

// Reset стирает прогресс: {beginner, ∅, ∅}. Сброс неизвестного учащегося
// эквивалентен созданию свежего прогресса и ошибкой не является: запись
// не создаётся, потому что отсутствие записи и есть начальное состояние.
func (t *Tracker) Reset(ctx context.Context, learnerID shared.LearnerID) (*ResetResult, error) {
	progress, err := t.store.Get(ctx, learnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &ResetResult{PreviousTier: shared.TierBeginner}, nil
		}
		return nil, err
	}

	result := &ResetResult{
		PreviousTier:     progress.Tier,
		LessonsForgotten: len(progress.CompletedLessons),
	}

	progress.Reset()

	if err := t.store.Put(ctx, learnerID, progress); err != nil {
		return nil, err
	}

	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// OverrideTier
// ─────────────────────────────────────────────────────────────────────────────

// OverrideTier административно устанавливает уровень. Единственный способ
// двигать уровень вне автоматического повышения; неявно не вызывается.
// Возвращает прежний уровень.
func (t *Tracker) OverrideTier(ctx context.Context, learnerID shared.LearnerID, tier shared.SkillTier) (shared.SkillTier, error) {
	progress, err := t.loadOrCreate(ctx, learnerID)
	if err != nil {
		return "", err
	}

	old := progress.Tier
	if err := progress.OverrideTier(tier); err != nil {
		return "", err
	}

	if err := t.store.Put(ctx, learnerID, progress); err != nil {
		return "", err
	}

	return old, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

// loadOrCreate возвращает прогресс учащегося, создавая свежий при отсутствии.
// Любая другая ошибка хранилища пробрасывается.
func (t *Tracker) loadOrCreate(ctx context.Context, learnerID shared.LearnerID) (*Progress, error) {
	progress, err := t.store.Get(ctx, learnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return NewProgress(learnerID), nil
		}
		return nil, err
	}
	return progress, nil
}

// pathComplete проверяет закрытие трека: в треке есть хотя бы один урок
// и каждый из них завершён. Пустой трек никогда не закрыт - "every" над
// пустым множеством вакуумно истинен, и эта истина явно отсекается.
func (t *Tracker) pathComplete(path catalog.Path, progress *Progress) bool {
	if path.IsEmpty() {
		return false
	}
	for _, l := range path.Lessons {
		if !progress.IsCompleted(l.ID) {
			return false
		}
	}
	return true
}

// promotionEligible проверяет, заслужено ли повышение: во входном треке
// есть уроки текущего уровня и все они завершены. Отсутствие таких уроков
// повышения не даёт (тот же вакуумный случай, что и с пустым треком).
func (t *Tracker) promotionEligible(progress *Progress) bool {
	if _, ok := progress.Tier.Next(); !ok {
		return false
	}

	path, ok := t.catalog.Path(t.entryPath)
	if !ok || path.IsEmpty() {
		return false
	}

	atTier := path.LessonsAtTier(progress.Tier)
	if len(atTier) == 0 {
		return false
	}

	for _, l := range atTier {
		if !progress.IsCompleted(l.ID) {
			return false
		}
	}
	return true
}
