package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedpath/hardwarehub-backend/internal/domain/catalog"
	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"
	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type memProgressStore struct {
	data map[shared.LearnerID]*learner.Progress
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{data: make(map[shared.LearnerID]*learner.Progress)}
}

func (s *memProgressStore) Get(_ context.Context, id shared.LearnerID) (*learner.Progress, error) {
	p, ok := s.data[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return p.Clone(), nil
}

func (s *memProgressStore) Put(_ context.Context, id shared.LearnerID, p *learner.Progress) error {
	s.data[id] = p.Clone()
	return nil
}

type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (i *countingInvalidator) Invalidate(context.Context, shared.LearnerID) error {
	i.calls++
	return nil
}

func (i *countingInvalidator) InvalidateAll(context.Context) error {
	i.calls++
	return nil
}

const testLearnerID = "4f6b1f6e-9c1d-4b8e-b0a3-2f1d8c7e5a42"

func entryCatalog() *catalog.Catalog {
	return catalog.NewCatalog([]catalog.Lesson{
		{ID: 1, Title: "Blink an LED", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 1},
		{ID: 2, Title: "Read a button", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 2},
		{ID: 3, Title: "I2C displays", RequiredTier: shared.TierIntermediate, PathID: "arduino-basics", Position: 3},
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// RecordCompletion
// ─────────────────────────────────────────────────────────────────────────────

func TestRecordCompletion_FirstCompletionPublishesEvent(t *testing.T) {
	store := newMemProgressStore()
	pub := &capturingPublisher{}
	inv := &countingInvalidator{}
	tracker := learner.NewTracker(entryCatalog(), store, "arduino-basics")
	h := NewRecordCompletionHandler(tracker, inv, pub)

	result, err := h.Handle(context.Background(), RecordCompletionCommand{
		LearnerID: testLearnerID,
		LessonID:  1,
	})
	require.NoError(t, err)

	assert.True(t, result.FirstCompletion)
	assert.Empty(t, result.UnlockedPaths)
	assert.Equal(t, 1, inv.calls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventLessonCompleted, pub.events[0].EventType())
}

func TestRecordCompletion_RepeatIsNoOp(t *testing.T) {
	store := newMemProgressStore()
	pub := &capturingPublisher{}
	tracker := learner.NewTracker(entryCatalog(), store, "arduino-basics")
	h := NewRecordCompletionHandler(tracker, nil, pub)

	_, err := h.Handle(context.Background(), RecordCompletionCommand{LearnerID: testLearnerID, LessonID: 1})
	require.NoError(t, err)
	published := len(pub.events)

	result, err := h.Handle(context.Background(), RecordCompletionCommand{LearnerID: testLearnerID, LessonID: 1})
	require.NoError(t, err)

	assert.False(t, result.FirstCompletion)
	assert.Len(t, pub.events, published, "repeat completion must not publish")
}

func TestRecordCompletion_LastLessonUnlocksPathAndPromotes(t *testing.T) {
	store := newMemProgressStore()
	pub := &capturingPublisher{}
	tracker := learner.NewTracker(entryCatalog(), store, "arduino-basics")
	h := NewRecordCompletionHandler(tracker, nil, pub)

	ctx := context.Background()
	for _, lessonID := range []int{1, 3} {
		_, err := h.Handle(ctx, RecordCompletionCommand{LearnerID: testLearnerID, LessonID: lessonID})
		require.NoError(t, err)
	}

	// Последний beginner-урок: закрывается весь трек и срабатывает
	// повышение beginner -> intermediate -> advanced (уроки шли не по порядку).
	result, err := h.Handle(ctx, RecordCompletionCommand{LearnerID: testLearnerID, LessonID: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"arduino-basics"}, result.UnlockedPaths)
	assert.Equal(t, "advanced", result.PromotedTo)

	types := make([]shared.EventType, 0, len(pub.events))
	for _, e := range pub.events {
		types = append(types, e.EventType())
	}
	assert.Contains(t, types, shared.EventPathUnlocked)
	assert.Contains(t, types, shared.EventTierPromoted)
}

func TestRecordCompletion_UnknownLessonIsNoOp(t *testing.T) {
	store := newMemProgressStore()
	pub := &capturingPublisher{}
	tracker := learner.NewTracker(entryCatalog(), store, "arduino-basics")
	h := NewRecordCompletionHandler(tracker, nil, pub)

	result, err := h.Handle(context.Background(), RecordCompletionCommand{LearnerID: testLearnerID, LessonID: 999})
	require.NoError(t, err)

	assert.False(t, result.FirstCompletion)
	assert.Empty(t, pub.events)
	assert.Empty(t, store.data, "unknown lesson must not touch the store")
}

func TestRecordCompletion_InvalidLearnerID(t *testing.T) {
	tracker := learner.NewTracker(entryCatalog(), newMemProgressStore(), "arduino-basics")
	h := NewRecordCompletionHandler(tracker, nil, &capturingPublisher{})

	_, err := h.Handle(context.Background(), RecordCompletionCommand{LearnerID: "not-a-uuid", LessonID: 1})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

// ─────────────────────────────────────────────────────────────────────────────
// ResetProgress
// ─────────────────────────────────────────────────────────────────────────────

func TestResetProgress_WipesStateAndReports(t *testing.T) {
	store := newMemProgressStore()
	pub := &capturingPublisher{}
	tracker := learner.NewTracker(entryCatalog(), store, "arduino-basics")

	recordHandler := NewRecordCompletionHandler(tracker, nil, pub)
	ctx := context.Background()
	for _, lessonID := range []int{1, 2, 3} {
		_, err := recordHandler.Handle(ctx, RecordCompletionCommand{LearnerID: testLearnerID, LessonID: lessonID})
		require.NoError(t, err)
	}

	resetHandler := NewResetProgressHandler(tracker, nil, pub)
	result, err := resetHandler.Handle(ctx, ResetProgressCommand{LearnerID: testLearnerID})
	require.NoError(t, err)

	assert.Equal(t, "advanced", result.PreviousTier)
	assert.Equal(t, 3, result.LessonsForgotten)

	progress, err := store.Get(ctx, shared.LearnerID(testLearnerID))
	require.NoError(t, err)
	assert.Equal(t, shared.TierBeginner, progress.Tier)
	assert.Empty(t, progress.CompletedLessons)
	assert.Empty(t, progress.CompletedPaths)
}

// ─────────────────────────────────────────────────────────────────────────────
// OverrideTier
// ─────────────────────────────────────────────────────────────────────────────

func TestOverrideTier_SetsTierAndPublishes(t *testing.T) {
	store := newMemProgressStore()
	pub := &capturingPublisher{}
	tracker := learner.NewTracker(entryCatalog(), store, "arduino-basics")
	h := NewOverrideTierHandler(tracker, nil, pub)

	result, err := h.Handle(context.Background(), OverrideTierCommand{
		LearnerID: testLearnerID,
		Tier:      "Advanced",
		Actor:     "admin@embedpath.dev",
	})
	require.NoError(t, err)

	assert.Equal(t, "beginner", result.OldTier)
	assert.Equal(t, "advanced", result.NewTier)
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventTierOverridden, pub.events[0].EventType())
}

func TestOverrideTier_RejectsUnknownTier(t *testing.T) {
	tracker := learner.NewTracker(entryCatalog(), newMemProgressStore(), "arduino-basics")
	h := NewOverrideTierHandler(tracker, nil, &capturingPublisher{})

	_, err := h.Handle(context.Background(), OverrideTierCommand{
		LearnerID: testLearnerID,
		Tier:      "wizard",
		Actor:     "admin@embedpath.dev",
	})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// SyncInsights
// ─────────────────────────────────────────────────────────────────────────────

type memInsightsRepo struct {
	posts map[string]insights.Post
}

func newMemInsightsRepo() *memInsightsRepo {
	return &memInsightsRepo{posts: make(map[string]insights.Post)}
}

func (r *memInsightsRepo) Upsert(_ context.Context, post insights.Post) (bool, error) {
	_, existed := r.posts[post.ID]
	r.posts[post.ID] = post
	return !existed, nil
}

func (r *memInsightsRepo) List(context.Context, int) ([]insights.Post, error) { return nil, nil }
func (r *memInsightsRepo) ListByTheme(context.Context, insights.Theme, int) ([]insights.Post, error) {
	return nil, nil
}
func (r *memInsightsRepo) CountByTheme(context.Context) (map[insights.Theme]int, error) {
	return nil, nil
}
func (r *memInsightsRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type stubFetcher struct {
	bySubreddit map[string][]insights.Post
	failing     map[string]bool
}

func (f *stubFetcher) FetchNewPosts(_ context.Context, subreddit string, _ int) ([]insights.Post, error) {
	if f.failing[subreddit] {
		return nil, assert.AnError
	}
	return f.bySubreddit[subreddit], nil
}

func TestSyncInsights_FiltersClassifiesAndStores(t *testing.T) {
	fetcher := &stubFetcher{
		bySubreddit: map[string][]insights.Post{
			"arduino": {
				{ID: "t3_a1", Subreddit: "arduino", Title: "Help with my esp32 power supply", URL: "https://reddit.com/a1"},
				{ID: "t3_a2", Subreddit: "arduino", Title: "I made a cool arduino clock", URL: "https://reddit.com/a2"},
			},
			"esp32": {
				{ID: "t3_b1", Subreddit: "esp32", Title: "Why does my esp32 i2c sensor not respond", URL: "https://reddit.com/b1"},
			},
		},
	}
	repo := newMemInsightsRepo()
	pub := &capturingPublisher{}
	inv := &countingInvalidator{}
	h := NewSyncInsightsHandler(fetcher, repo, inv, pub)

	result, err := h.Handle(context.Background(), SyncInsightsCommand{
		Subreddits:        []string{"arduino", "esp32"},
		PostsPerSubreddit: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 2, result.Matched, "showcase post must be filtered out")
	assert.Equal(t, 2, result.Stored)
	assert.Empty(t, result.FailedSubreddits)
	assert.Equal(t, 1, inv.calls)

	assert.Equal(t, insights.ThemeWiringPower, repo.posts["t3_a1"].Theme)
	assert.Equal(t, insights.ThemeCommunication, repo.posts["t3_b1"].Theme)

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventInsightsSynced, pub.events[0].EventType())
}

func TestSyncInsights_RepeatRunStoresNothingNew(t *testing.T) {
	post := insights.Post{ID: "t3_a1", Subreddit: "arduino", Title: "Help with arduino wiring", URL: "https://reddit.com/a1"}
	fetcher := &stubFetcher{bySubreddit: map[string][]insights.Post{"arduino": {post}}}
	repo := newMemInsightsRepo()
	h := NewSyncInsightsHandler(fetcher, repo, nil, &capturingPublisher{})

	ctx := context.Background()
	cmd := SyncInsightsCommand{Subreddits: []string{"arduino"}, PostsPerSubreddit: 50}

	first, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stored)

	second, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stored)
	assert.Equal(t, 1, second.Matched)
}

func TestSyncInsights_PartialFailureContinues(t *testing.T) {
	fetcher := &stubFetcher{
		bySubreddit: map[string][]insights.Post{
			"esp32": {{ID: "t3_b1", Subreddit: "esp32", Title: "Help debugging stm32 uart error", URL: "https://reddit.com/b1"}},
		},
		failing: map[string]bool{"arduino": true},
	}
	h := NewSyncInsightsHandler(fetcher, newMemInsightsRepo(), nil, &capturingPublisher{})

	result, err := h.Handle(context.Background(), SyncInsightsCommand{
		Subreddits:        []string{"arduino", "esp32"},
		PostsPerSubreddit: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"arduino"}, result.FailedSubreddits)
	assert.Equal(t, 1, result.Stored)
}

func TestSyncInsights_AllFailuresIsError(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{"arduino": true, "esp32": true}}
	h := NewSyncInsightsHandler(fetcher, newMemInsightsRepo(), nil, &capturingPublisher{})

	_, err := h.Handle(context.Background(), SyncInsightsCommand{
		Subreddits:        []string{"arduino", "esp32"},
		PostsPerSubreddit: 50,
	})
	assert.ErrorIs(t, err, shared.ErrExternalService)
}
