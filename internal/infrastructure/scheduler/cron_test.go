package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_Fields(t *testing.T) {
	ce, err := ParseCronExpression("*/15 3 1 * 0")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 15, 30, 45}, ce.minutes)
	assert.Equal(t, []int{3}, ce.hours)
	assert.Equal(t, []int{1}, ce.days)
	assert.Len(t, ce.months, 12)
	assert.Equal(t, []int{0}, ce.weekdays)
}

func TestParseCronExpression_Invalid(t *testing.T) {
	cases := []string{
		"",
		"* * * *",       // 4 fields
		"* * * * * *",   // 6 fields
		"60 * * * *",    // minute out of range
		"* 24 * * *",    // hour out of range
		"* * * * sat",   // names unsupported
		"*/0 * * * *",   // zero step
		"1-2-3 * * * *", // malformed range
	}

	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, "expression %q", expr)
	}
}

func TestCronExpression_Next(t *testing.T) {
	ce, err := ParseCronExpression("0 3 * * *")
	require.NoError(t, err)

	// Before 03:00 rolls to 03:00 same day.
	after := time.Date(2024, 5, 10, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC), ce.Next(after))

	// At exactly 03:00 rolls to the next day.
	at := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 11, 3, 0, 0, 0, time.UTC), ce.Next(at))
}

func TestCronExpression_NextWeekday(t *testing.T) {
	ce, err := ParseCronExpression(EverySunday)
	require.NoError(t, err)

	// 2024-05-10 is a Friday; the next Sunday midnight is 2024-05-12.
	after := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), ce.Next(after))
}

func TestNewCronSchedule_ImplementsSchedule(t *testing.T) {
	s, err := NewCronSchedule(EveryHour)
	require.NoError(t, err)

	var _ Schedule = s
	assert.Equal(t, EveryHour, s.String())

	after := time.Date(2024, 5, 10, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 10, 2, 0, 0, 0, time.UTC), s.Next(after))
}

func TestNewCronSchedule_InvalidExpression(t *testing.T) {
	_, err := NewCronSchedule("not a cron")
	assert.Error(t, err)
}
