package learner

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// memoryStore - простое хранилище прогресса в памяти для тестов.
type memoryStore struct {
	progress map[shared.LearnerID]*Progress
	failPut  error
	failGet  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{progress: make(map[shared.LearnerID]*Progress)}
}

func (m *memoryStore) Get(_ context.Context, id shared.LearnerID) (*Progress, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	p, ok := m.progress[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return p.Clone(), nil
}

func (m *memoryStore) Put(_ context.Context, id shared.LearnerID, p *Progress) error {
	if m.failPut != nil {
		return m.failPut
	}
	m.progress[id] = p.Clone()
	return nil
}

const testLearner = shared.LearnerID("8a2b1f40-0000-4000-8000-000000000001")

// testCatalog: трек "intro" - два урока beginner (10, 11) и один
// intermediate (12); трек "sensors" - один урок (20); урок 30 вне треков.
func testCatalog() *catalog.Catalog {
	return catalog.NewCatalog([]catalog.Lesson{
		{ID: 10, Title: "Blink an LED", RequiredTier: shared.TierBeginner, PathID: "intro", Position: 1},
		{ID: 11, Title: "Read a Button", RequiredTier: shared.TierBeginner, PathID: "intro", Position: 2},
		{ID: 12, Title: "PWM Dimming", RequiredTier: shared.TierIntermediate, PathID: "intro", Position: 3},
		{ID: 20, Title: "I2C Basics", RequiredTier: shared.TierBeginner, PathID: "sensors", Position: 1},
		{ID: 30, Title: "Soldering", RequiredTier: shared.TierBeginner, Position: 1},
	})
}

func newTestTracker() (*Tracker, *memoryStore) {
	store := newMemoryStore()
	return NewTracker(testCatalog(), store, "intro"), store
}

// ─────────────────────────────────────────────────────────────────────────────
// Основные сценарии
// ─────────────────────────────────────────────────────────────────────────────

func TestRecordCompletion_UnlocksPathOnLastLesson(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	res, err := tracker.RecordCompletion(ctx, testLearner, 20)
	require.NoError(t, err)
	assert.True(t, res.FirstCompletion)
	assert.Equal(t, []shared.PathID{"sensors"}, res.UnlockedPaths)
}

func TestRecordCompletion_IntroScenario(t *testing.T) {
	// Завершение уроков 10 и 11 закрывает все beginner-уроки входного
	// трека: второй вызов повышает уровень до intermediate. Сам трек ещё
	// не закрыт - в нём остаётся урок 12.
	tracker, store := newTestTracker()
	ctx := context.Background()

	res, err := tracker.RecordCompletion(ctx, testLearner, 10)
	require.NoError(t, err)
	assert.Empty(t, res.UnlockedPaths)
	assert.Nil(t, res.Promoted)

	res, err = tracker.RecordCompletion(ctx, testLearner, 11)
	require.NoError(t, err)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, shared.TierIntermediate, *res.Promoted)
	assert.Equal(t, shared.TierBeginner, res.PromotedFrom)

	saved, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierIntermediate, saved.Tier)
}

func TestRecordCompletion_BeginnerOnlyPathUnlocks(t *testing.T) {
	// Трек, все уроки которого одного уровня, закрывается последним уроком.
	store := newMemoryStore()
	cat := catalog.NewCatalog([]catalog.Lesson{
		{ID: 10, RequiredTier: shared.TierBeginner, PathID: "intro", Position: 1},
		{ID: 11, RequiredTier: shared.TierBeginner, PathID: "intro", Position: 2},
	})
	tracker := NewTracker(cat, store, "intro")
	ctx := context.Background()

	res, err := tracker.RecordCompletion(ctx, testLearner, 10)
	require.NoError(t, err)
	assert.Empty(t, res.UnlockedPaths)

	res, err = tracker.RecordCompletion(ctx, testLearner, 11)
	require.NoError(t, err)
	assert.Equal(t, []shared.PathID{"intro"}, res.UnlockedPaths)
}

func TestRecordCompletion_Idempotent(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	first, err := tracker.RecordCompletion(ctx, testLearner, 20)
	require.NoError(t, err)
	require.True(t, first.FirstCompletion)
	require.Equal(t, []shared.PathID{"sensors"}, first.UnlockedPaths)

	before, err := store.Get(ctx, testLearner)
	require.NoError(t, err)

	// Повторный вызов: пустой результат, состояние не изменилось.
	second, err := tracker.RecordCompletion(ctx, testLearner, 20)
	require.NoError(t, err)
	assert.False(t, second.FirstCompletion)
	assert.Empty(t, second.UnlockedPaths)
	assert.Nil(t, second.Promoted)

	after, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, before.Tier, after.Tier)
	assert.Equal(t, before.CompletedLessonIDs(), after.CompletedLessonIDs())
	assert.Equal(t, before.CompletedPathIDs(), after.CompletedPathIDs())
}

func TestRecordCompletion_OrderIndependence(t *testing.T) {
	// Для любой перестановки фиксированного набора уроков итоговое
	// состояние идентично. Центральный проверяемый инвариант.
	lessons := []shared.LessonID{10, 11, 12, 20, 30}
	ctx := context.Background()

	var baseline *Progress
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		perm := make([]shared.LessonID, len(lessons))
		copy(perm, lessons)
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

		tracker, store := newTestTracker()
		for _, id := range perm {
			_, err := tracker.RecordCompletion(ctx, testLearner, id)
			require.NoError(t, err)
		}

		final, err := store.Get(ctx, testLearner)
		require.NoError(t, err)

		if baseline == nil {
			baseline = final
			continue
		}
		assert.Equal(t, baseline.Tier, final.Tier, "permutation %v", perm)
		assert.Equal(t, baseline.CompletedLessonIDs(), final.CompletedLessonIDs(), "permutation %v", perm)
		assert.Equal(t, baseline.CompletedPathIDs(), final.CompletedPathIDs(), "permutation %v", perm)
	}

	// Полный набор закрывает оба трека и доводит до advanced.
	require.NotNil(t, baseline)
	assert.Equal(t, shared.TierAdvanced, baseline.Tier)
	assert.Equal(t, []shared.PathID{"intro", "sensors"}, baseline.CompletedPathIDs())
}

func TestRecordCompletion_Monotonicity(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	prevRank := 0
	prevLessons := 0
	for _, id := range []shared.LessonID{30, 11, 20, 10, 12} {
		_, err := tracker.RecordCompletion(ctx, testLearner, id)
		require.NoError(t, err)

		p, err := store.Get(ctx, testLearner)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Tier.Rank(), prevRank, "tier must never decrease")
		assert.GreaterOrEqual(t, len(p.CompletedLessons), prevLessons, "completed set must never shrink")
		prevRank = p.Tier.Rank()
		prevLessons = len(p.CompletedLessons)
	}
}

func TestRecordCompletion_UnknownLessonIsNoop(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	res, err := tracker.RecordCompletion(ctx, testLearner, 999)
	require.NoError(t, err)
	assert.False(t, res.FirstCompletion)
	assert.Empty(t, res.UnlockedPaths)
	assert.Nil(t, res.Promoted)

	// Неизвестный урок не создаёт и не трогает прогресс.
	_, err = store.Get(ctx, testLearner)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordCompletion_MultiTierPromotionInOneCall(t *testing.T) {
	// Уроки intermediate-входного трека пройдены раньше beginner-уроков:
	// последний beginner-урок должен докрутить уровень через обе ступени,
	// иначе итог зависел бы от порядка.
	tracker, store := newTestTracker()
	ctx := context.Background()

	for _, id := range []shared.LessonID{12, 10} {
		_, err := tracker.RecordCompletion(ctx, testLearner, id)
		require.NoError(t, err)
	}

	res, err := tracker.RecordCompletion(ctx, testLearner, 11)
	require.NoError(t, err)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, shared.TierAdvanced, *res.Promoted)
	assert.Equal(t, shared.TierBeginner, res.PromotedFrom)

	p, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierAdvanced, p.Tier)
}

func TestRecordCompletion_AdvancedIsSteadyState(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	for _, id := range []shared.LessonID{10, 11, 12, 20, 30} {
		_, err := tracker.RecordCompletion(ctx, testLearner, id)
		require.NoError(t, err)
	}

	p, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	require.Equal(t, shared.TierAdvanced, p.Tier)

	// Установившееся состояние продолжает принимать (вхолостую) завершения.
	res, err := tracker.RecordCompletion(ctx, testLearner, 10)
	require.NoError(t, err)
	assert.False(t, res.FirstCompletion)
	assert.Nil(t, res.Promoted)
}

func TestRecordCompletion_StoreFailurePropagates(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	ioErr := errors.New("connection refused")
	store.failPut = ioErr

	_, err := tracker.RecordCompletion(ctx, testLearner, 10)
	assert.ErrorIs(t, err, ioErr)

	store.failPut = nil
	store.failGet = ioErr
	_, err = tracker.RecordCompletion(ctx, testLearner, 10)
	assert.ErrorIs(t, err, ioErr)
}

// ─────────────────────────────────────────────────────────────────────────────
// Пустые треки
// ─────────────────────────────────────────────────────────────────────────────

func TestEmptyEntryPathNeverPromotes(t *testing.T) {
	// Входной трек не существует в каталоге: вакуумная истина "все уроки
	// завершены" не должна давать повышение.
	store := newMemoryStore()
	cat := catalog.NewCatalog([]catalog.Lesson{
		{ID: 1, RequiredTier: shared.TierBeginner, PathID: "other", Position: 1},
	})
	tracker := NewTracker(cat, store, "ghost")
	ctx := context.Background()

	res, err := tracker.RecordCompletion(ctx, testLearner, 1)
	require.NoError(t, err)
	assert.Nil(t, res.Promoted)

	p, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierBeginner, p.Tier)
}

func TestEntryPathWithoutLessonsAtTierNeverPromotes(t *testing.T) {
	// Во входном треке нет уроков текущего уровня - повышения нет.
	store := newMemoryStore()
	cat := catalog.NewCatalog([]catalog.Lesson{
		{ID: 1, RequiredTier: shared.TierIntermediate, PathID: "entry", Position: 1},
		{ID: 2, RequiredTier: shared.TierBeginner, PathID: "other", Position: 1},
	})
	tracker := NewTracker(cat, store, "entry")
	ctx := context.Background()

	res, err := tracker.RecordCompletion(ctx, testLearner, 2)
	require.NoError(t, err)
	assert.Nil(t, res.Promoted)
}

// ─────────────────────────────────────────────────────────────────────────────
// CheckAllPathCompletions
// ─────────────────────────────────────────────────────────────────────────────

func TestCheckAllPathCompletions_MatchesReplay(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	for _, id := range []shared.LessonID{20, 10, 11, 12} {
		_, err := tracker.RecordCompletion(ctx, testLearner, id)
		require.NoError(t, err)
	}

	paths, err := tracker.CheckAllPathCompletions(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, []shared.PathID{"intro", "sensors"}, paths)
}

func TestCheckAllPathCompletions_RepairsLostSideEffects(t *testing.T) {
	// Имитация частичного сбоя: уроки записаны, но закрытие трека и
	// повышение потеряны. Сверка должна восстановить и то, и другое.
	tracker, store := newTestTracker()
	ctx := context.Background()

	damaged := NewProgress(testLearner)
	for _, id := range []shared.LessonID{10, 11, 20} {
		damaged.Complete(id)
	}
	require.NoError(t, store.Put(ctx, testLearner, damaged))

	paths, err := tracker.CheckAllPathCompletions(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, []shared.PathID{"sensors"}, paths)

	repaired, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierIntermediate, repaired.Tier)
	assert.True(t, repaired.HasCompletedPath("sensors"))
}

func TestCheckAllPathCompletions_UnknownLearner(t *testing.T) {
	tracker, _ := newTestTracker()

	paths, err := tracker.CheckAllPathCompletions(context.Background(), testLearner)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reset / OverrideTier
// ─────────────────────────────────────────────────────────────────────────────

func TestReset_ReturnsToInitialState(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	for _, id := range []shared.LessonID{10, 11, 20} {
		_, err := tracker.RecordCompletion(ctx, testLearner, id)
		require.NoError(t, err)
	}

	res, err := tracker.Reset(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierIntermediate, res.PreviousTier)
	assert.Equal(t, 3, res.LessonsForgotten)

	paths, err := tracker.CheckAllPathCompletions(ctx, testLearner)
	require.NoError(t, err)
	assert.Empty(t, paths)

	p, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierBeginner, p.Tier)
	assert.Empty(t, p.CompletedLessons)
	assert.Empty(t, p.CompletedPaths)
}

func TestReset_UnknownLearnerSucceeds(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	res, err := tracker.Reset(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierBeginner, res.PreviousTier)
	assert.Zero(t, res.LessonsForgotten)

	// Запись не создаётся: отсутствие прогресса и есть начальное состояние.
	_, err = store.Get(ctx, testLearner)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReset_StoreRefusingToCreateRows(t *testing.T) {
	// Хранилище в духе реляционного: Put обновляет существующую строку и
	// отказывает, когда её нет. Сброс незарегистрированного учащегося
	// обязан завершаться успехом без единой записи в хранилище.
	tracker, store := newTestTracker()
	store.failPut = shared.ErrLearnerNotFound

	res, err := tracker.Reset(context.Background(), testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierBeginner, res.PreviousTier)
	assert.Zero(t, res.LessonsForgotten)
}

func TestOverrideTier(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()

	old, err := tracker.OverrideTier(ctx, testLearner, "Advanced")
	require.NoError(t, err)
	assert.Equal(t, shared.TierBeginner, old)

	p, err := store.Get(ctx, testLearner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierAdvanced, p.Tier)

	// Понижение административно разрешено.
	old, err = tracker.OverrideTier(ctx, testLearner, shared.TierBeginner)
	require.NoError(t, err)
	assert.Equal(t, shared.TierAdvanced, old)

	// Нераспознанный уровень отвергается.
	_, err = tracker.OverrideTier(ctx, testLearner, "wizard")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
