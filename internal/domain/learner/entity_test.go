package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

func TestNewLearner_Validation(t *testing.T) {
	valid := NewLearnerParams{
		ID:             "8a2b1f40-0000-4000-8000-000000000001",
		Email:          "maker@example.com",
		DisplayName:    "Maker",
		CredentialHash: "$2a$10$abcdefghijklmnopqrstuv",
	}

	l, err := NewLearner(valid)
	require.NoError(t, err)
	assert.Equal(t, shared.TierBeginner.Rank(), 1)
	assert.Equal(t, shared.Email("maker@example.com"), l.Email)
	assert.False(t, l.CreatedAt.IsZero())

	cases := []struct {
		name   string
		mutate func(*NewLearnerParams)
		want   error
	}{
		{"empty id", func(p *NewLearnerParams) { p.ID = "" }, shared.ErrInvalidID},
		{"malformed id", func(p *NewLearnerParams) { p.ID = "not-a-uuid" }, shared.ErrInvalidID},
		{"bad email", func(p *NewLearnerParams) { p.Email = "nope" }, ErrInvalidEmail},
		{"empty name", func(p *NewLearnerParams) { p.DisplayName = "   " }, ErrInvalidDisplayName},
		{"no hash", func(p *NewLearnerParams) { p.CredentialHash = "" }, ErrEmptyCredentialHash},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := valid
			tc.mutate(&params)
			_, err := NewLearner(params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLearnerString_OmitsCredentialHash(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{
		ID:             "8a2b1f40-0000-4000-8000-000000000001",
		Email:          "maker@example.com",
		DisplayName:    "Maker",
		CredentialHash: "$2a$10$secret",
	})
	require.NoError(t, err)
	assert.NotContains(t, l.String(), "secret")
}

func TestProgress_CompleteAndClone(t *testing.T) {
	p := NewProgress("8a2b1f40-0000-4000-8000-000000000001")

	assert.True(t, p.Complete(5))
	assert.False(t, p.Complete(5), "re-completion must be a no-op")
	assert.True(t, p.Complete(-1), "negative ids are opaque keys")
	assert.Equal(t, []shared.LessonID{-1, 5}, p.CompletedLessonIDs())

	clone := p.Clone()
	clone.Complete(7)
	clone.MarkPathCompleted("track")
	assert.False(t, p.IsCompleted(7), "clone must not share state")
	assert.False(t, p.HasCompletedPath("track"))
}

func TestProgress_PromoteStopsAtAdvanced(t *testing.T) {
	p := NewProgress("8a2b1f40-0000-4000-8000-000000000001")

	assert.True(t, p.Promote())
	assert.Equal(t, shared.TierIntermediate, p.Tier)
	assert.True(t, p.Promote())
	assert.Equal(t, shared.TierAdvanced, p.Tier)
	assert.False(t, p.Promote(), "advanced is the top tier")
	assert.Equal(t, shared.TierAdvanced, p.Tier)
}

func TestProgress_Reset(t *testing.T) {
	p := NewProgress("8a2b1f40-0000-4000-8000-000000000001")
	p.Complete(1)
	p.MarkPathCompleted("track")
	p.Promote()

	p.Reset()

	assert.Equal(t, shared.TierBeginner, p.Tier)
	assert.Empty(t, p.CompletedLessons)
	assert.Empty(t, p.CompletedPaths)
}
