package query

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

const testLearnerID = "4f6b1f6e-9c1d-4b8e-b0a3-2f1d8c7e5a42"

type stubProgressReader struct {
	progress *learner.Progress
	err      error
}

func (s *stubProgressReader) Get(context.Context, shared.LearnerID) (*learner.Progress, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.progress, nil
}

func testCatalog() *catalog.Catalog {
	return catalog.NewCatalog([]catalog.Lesson{
		{ID: 1, Title: "Blink an LED", RequiredTier: shared.TierBeginner, PathID: "arduino-basics", Position: 1},
		{ID: 2, Title: "I2C displays", RequiredTier: shared.TierIntermediate, PathID: "arduino-basics", Position: 2},
		{ID: 3, Title: "RTOS scheduling", RequiredTier: shared.TierAdvanced, PathID: "rtos", Position: 1},
	})
}

func TestGetLessonCatalog_AnonymousSeesBeginnerOnly(t *testing.T) {
	h := NewGetLessonCatalogHandler(testCatalog(), &stubProgressReader{err: shared.ErrLearnerNotFound})

	result, err := h.Handle(context.Background(), GetLessonCatalogQuery{})
	require.NoError(t, err)

	assert.Equal(t, "beginner", result.Tier)
	assert.Equal(t, 1, result.AccessibleCount)
	require.Len(t, result.Lessons, 1)
	assert.Equal(t, 1, result.Lessons[0].ID)
}

func TestGetLessonCatalog_TierGatesLessons(t *testing.T) {
	progress := learner.NewProgress(shared.LearnerID(testLearnerID))
	progress.Tier = shared.TierIntermediate
	progress.CompletedLessons[1] = struct{}{}

	h := NewGetLessonCatalogHandler(testCatalog(), &stubProgressReader{progress: progress})

	result, err := h.Handle(context.Background(), GetLessonCatalogQuery{LearnerID: testLearnerID})
	require.NoError(t, err)

	assert.Equal(t, "intermediate", result.Tier)
	assert.Equal(t, 2, result.AccessibleCount)
	assert.True(t, result.Lessons[0].Completed)
	assert.False(t, result.Lessons[1].Completed)
}

func TestGetLessonCatalog_IncludeLockedMarksInaccessible(t *testing.T) {
	h := NewGetLessonCatalogHandler(testCatalog(), &stubProgressReader{err: shared.ErrLearnerNotFound})

	result, err := h.Handle(context.Background(), GetLessonCatalogQuery{
		LearnerID:     testLearnerID,
		IncludeLocked: true,
	})
	require.NoError(t, err)

	assert.Len(t, result.Lessons, 3)
	assert.Equal(t, 1, result.AccessibleCount)
	assert.True(t, result.Lessons[0].Accessible)
	assert.False(t, result.Lessons[2].Accessible)
}

func TestGetLearnerProgress_UnknownLearnerGetsFreshState(t *testing.T) {
	store := &stubProgressStore{err: shared.ErrLearnerNotFound}
	h := NewGetLearnerProgressHandler(testCatalog(), store, nil)

	result, err := h.Handle(context.Background(), GetLearnerProgressQuery{LearnerID: testLearnerID})
	require.NoError(t, err)

	assert.Equal(t, "beginner", result.Tier)
	assert.Empty(t, result.CompletedLessons)
	assert.Len(t, result.Paths, 2)
}

func TestGetLearnerProgress_ReportsPathProgress(t *testing.T) {
	progress := learner.NewProgress(shared.LearnerID(testLearnerID))
	progress.CompletedLessons[1] = struct{}{}

	store := &stubProgressStore{progress: progress}
	h := NewGetLearnerProgressHandler(testCatalog(), store, nil)

	result, err := h.Handle(context.Background(), GetLearnerProgressQuery{LearnerID: testLearnerID})
	require.NoError(t, err)

	var basics PathProgressDTO
	for _, p := range result.Paths {
		if p.PathID == "arduino-basics" {
			basics = p
		}
	}
	assert.Equal(t, 1, basics.CompletedLessons)
	assert.Equal(t, 2, basics.TotalLessons)
	assert.False(t, basics.Completed)
}

type stubProgressStore struct {
	progress *learner.Progress
	err      error
}

func (s *stubProgressStore) Get(context.Context, shared.LearnerID) (*learner.Progress, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.progress, nil
}

func (s *stubProgressStore) Put(context.Context, shared.LearnerID, *learner.Progress) error {
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetLessonQuiz
// ─────────────────────────────────────────────────────────────────────────────

type stubQuizGenerator struct{}

func (stubQuizGenerator) GenerateQuiz(_ context.Context, lessonID int, title, _ string) (*QuizDTO, error) {
	return &QuizDTO{LessonID: lessonID, Title: title, Demo: true}, nil
}

func TestGetLessonQuiz_AccessPolicyApplies(t *testing.T) {
	h := NewGetLessonQuizHandler(testCatalog(), &stubProgressReader{err: shared.ErrLearnerNotFound}, stubQuizGenerator{})

	quiz, err := h.Handle(context.Background(), GetLessonQuizQuery{LearnerID: testLearnerID, LessonID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, quiz.LessonID)

	_, err = h.Handle(context.Background(), GetLessonQuizQuery{LearnerID: testLearnerID, LessonID: 3})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetLessonQuiz_UnknownLesson(t *testing.T) {
	h := NewGetLessonQuizHandler(testCatalog(), &stubProgressReader{}, stubQuizGenerator{})

	_, err := h.Handle(context.Background(), GetLessonQuizQuery{LearnerID: testLearnerID, LessonID: 99})
	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetCommunityInsights
// ─────────────────────────────────────────────────────────────────────────────

type stubInsightsRepo struct {
	posts  []insights.Post
	counts map[insights.Theme]int
}

func (s *stubInsightsRepo) Upsert(context.Context, insights.Post) (bool, error) { return false, nil }
func (s *stubInsightsRepo) List(context.Context, int) ([]insights.Post, error)  { return s.posts, nil }
func (s *stubInsightsRepo) ListByTheme(_ context.Context, theme insights.Theme, _ int) ([]insights.Post, error) {
	var out []insights.Post
	for _, p := range s.posts {
		if p.Theme == theme {
			out = append(out, p)
		}
	}
	return out, nil
}
func (s *stubInsightsRepo) CountByTheme(context.Context) (map[insights.Theme]int, error) {
	return s.counts, nil
}
func (s *stubInsightsRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestGetCommunityInsights_FilterByTheme(t *testing.T) {
	repo := &stubInsightsRepo{
		posts: []insights.Post{
			{ID: "t3_a", Title: "power issue", Theme: insights.ThemeWiringPower},
			{ID: "t3_b", Title: "i2c issue", Theme: insights.ThemeCommunication},
		},
		counts: map[insights.Theme]int{
			insights.ThemeWiringPower:   1,
			insights.ThemeCommunication: 1,
		},
	}
	h := NewGetCommunityInsightsHandler(repo, nil)

	result, err := h.Handle(context.Background(), GetCommunityInsightsQuery{Theme: "Communication"})
	require.NoError(t, err)

	require.Len(t, result.Posts, 1)
	assert.Equal(t, "t3_b", result.Posts[0].ID)
	assert.Equal(t, 1, result.ThemeCounts["Wiring & Power"])
}

func TestGetCommunityInsights_RejectsUnknownTheme(t *testing.T) {
	h := NewGetCommunityInsightsHandler(&stubInsightsRepo{}, nil)

	_, err := h.Handle(context.Background(), GetCommunityInsightsQuery{Theme: "Quantum"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetCommunityInsights_LimitNormalization(t *testing.T) {
	q := GetCommunityInsightsQuery{Limit: 500}
	require.NoError(t, q.Validate())
	assert.Equal(t, 100, q.Limit)

	q = GetCommunityInsightsQuery{}
	require.NoError(t, q.Validate())
	assert.Equal(t, 25, q.Limit)

	q = GetCommunityInsightsQuery{Limit: -1}
	assert.Error(t, q.Validate())
}
