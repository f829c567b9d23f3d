package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
)

func sampleCatalog() *Catalog {
	return NewCatalog([]Lesson{
		{ID: 10, Title: "Blink an LED", RequiredTier: shared.TierBeginner, PathID: "arduino-intro", Position: 1},
		{ID: 11, Title: "Read a Button", RequiredTier: shared.TierBeginner, PathID: "arduino-intro", Position: 2},
		{ID: 20, Title: "I2C Sensors", RequiredTier: shared.TierIntermediate, PathID: "esp32-sensors", Position: 1},
		{ID: 0, Title: "Orientation", RequiredTier: shared.TierBeginner, Position: 1},
		{ID: -3, Title: "Legacy Import", RequiredTier: shared.TierAdvanced, PathID: "esp32-sensors", Position: 2},
	})
}

func TestCatalog_LessonLookup(t *testing.T) {
	c := sampleCatalog()

	l, ok := c.Lesson(10)
	require.True(t, ok)
	assert.Equal(t, "Blink an LED", l.Title)

	// Zero and negative IDs are opaque keys, not sentinels.
	l, ok = c.Lesson(0)
	require.True(t, ok)
	assert.Equal(t, "Orientation", l.Title)

	l, ok = c.Lesson(-3)
	require.True(t, ok)
	assert.Equal(t, "Legacy Import", l.Title)

	_, ok = c.Lesson(999)
	assert.False(t, ok)
}

func TestCatalog_PathGrouping(t *testing.T) {
	c := sampleCatalog()

	p, ok := c.Path("arduino-intro")
	require.True(t, ok)
	assert.Equal(t, []shared.LessonID{10, 11}, p.LessonIDs())
	assert.False(t, p.IsEmpty())

	_, ok = c.Path("no-such-path")
	assert.False(t, ok)

	// Lessons without a path belong to no path.
	_, ok = c.PathOf(0)
	assert.False(t, ok)

	p, ok = c.PathOf(11)
	require.True(t, ok)
	assert.Equal(t, shared.PathID("arduino-intro"), p.ID)
}

func TestCatalog_PathOrderedByPosition(t *testing.T) {
	c := NewCatalog([]Lesson{
		{ID: 2, PathID: "track", Position: 3},
		{ID: 1, PathID: "track", Position: 1},
		{ID: 3, PathID: "track", Position: 2},
	})

	p, ok := c.Path("track")
	require.True(t, ok)
	assert.Equal(t, []shared.LessonID{1, 3, 2}, p.LessonIDs())
}

func TestCatalog_AccessibleLessons(t *testing.T) {
	c := sampleCatalog()

	beginner := c.AccessibleLessons(shared.TierBeginner)
	ids := make([]shared.LessonID, 0, len(beginner))
	for _, l := range beginner {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []shared.LessonID{10, 11, 0}, ids)

	advanced := c.AccessibleLessons(shared.TierAdvanced)
	assert.Len(t, advanced, c.Len())

	// Unknown tier sees nothing with a known required tier.
	assert.Empty(t, c.AccessibleLessons("hacker"))
}

func TestPath_LessonsAtTier(t *testing.T) {
	c := sampleCatalog()

	p, ok := c.Path("esp32-sensors")
	require.True(t, ok)

	atIntermediate := p.LessonsAtTier(shared.TierIntermediate)
	require.Len(t, atIntermediate, 1)
	assert.Equal(t, shared.LessonID(20), atIntermediate[0].ID)

	assert.Empty(t, p.LessonsAtTier(shared.TierBeginner))
}
