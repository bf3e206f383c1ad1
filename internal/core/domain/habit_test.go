package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func TestNewHabit(t *testing.T) {
	now := time.Date(2024, 1, 28, 10, 0, 0, 0, time.UTC)

	t.Run("Success: Creates habit with trimmed name and no completions", func(t *testing.T) {
		h, err := domain.NewHabit("  Drink Water ", domain.PeriodDaily, now)
		require.NoError(t, err)

		assert.Equal(t, "Drink Water", h.Name)
		assert.Equal(t, domain.PeriodDaily, h.Period)
		assert.Equal(t, now, h.CreationTime)
		assert.Empty(t, h.Completions)
	})

	tests := []struct {
		name    string
		title   string
		period  domain.Period
		wantErr error
	}{
		{"Empty name", "", domain.PeriodDaily, domain.ErrHabitNameEmpty},
		{"Whitespace name", "   ", domain.PeriodWeekly, domain.ErrHabitNameEmpty},
		{"Name too long", strings.Repeat("a", domain.MaxNameLen+1), domain.PeriodDaily, domain.ErrHabitNameTooLong},
		{"Unknown period", "Read", domain.Period("monthly"), domain.ErrInvalidPeriod},
		{"Empty period", "Read", domain.Period(""), domain.ErrInvalidPeriod},
	}
	for _, tt := range tests {
		t.Run("Error: "+tt.name, func(t *testing.T) {
			h, err := domain.NewHabit(tt.title, tt.period, now)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, h)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := domain.ParsePeriod(" weekly ")
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodWeekly, p)

	_, err = domain.ParsePeriod("Daily")
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	threshold, err := domain.PeriodDaily.Threshold()
	require.NoError(t, err)
	assert.Equal(t, 1, threshold)

	threshold, err = domain.PeriodWeekly.Threshold()
	require.NoError(t, err)
	assert.Equal(t, 7, threshold)
}

func TestHabit_Complete(t *testing.T) {
	h, err := domain.NewHabit("Meditation", domain.PeriodDaily, base)
	require.NoError(t, err)

	t.Run("First completion of the day is recorded", func(t *testing.T) {
		assert.True(t, h.Complete(day(0).Add(7*time.Hour)))
		assert.Equal(t, days(0), h.Completions)
	})

	t.Run("Second completion on the same day is a no-op", func(t *testing.T) {
		assert.False(t, h.Complete(day(0).Add(22*time.Hour)))
		assert.Len(t, h.Completions, 1)
	})

	t.Run("Completions are kept in insertion order at rest", func(t *testing.T) {
		h.Complete(day(3))
		h.Complete(day(1))
		assert.Equal(t, days(0, 3, 1), h.Completions)
		assert.True(t, h.CompletedOn(day(1).Add(time.Hour)))
		assert.False(t, h.CompletedOn(day(2)))
	})

	t.Run("TrackStreaks does not sort the owned completions", func(t *testing.T) {
		streaks, err := h.TrackStreaks()
		require.NoError(t, err)

		assert.Equal(t, []int{2, 1}, durations(streaks))
		assert.Equal(t, days(0, 3, 1), h.Completions)
	})
}

func TestHabit_StartDate(t *testing.T) {
	h, _ := domain.NewHabit("Reading", domain.PeriodWeekly, base)

	_, ok := h.StartDate()
	assert.False(t, ok)

	h.Complete(day(10))
	h.Complete(day(-4).Add(13 * time.Hour))
	h.Complete(day(2))

	start, ok := h.StartDate()
	assert.True(t, ok)
	assert.Equal(t, day(-4), start)
}

func TestHabit_Clone(t *testing.T) {
	h, _ := domain.NewHabit("Coding", domain.PeriodDaily, base)
	h.Complete(day(0))

	c := h.Clone()
	c.Complete(day(1))

	assert.Len(t, h.Completions, 1)
	assert.Len(t, c.Completions, 2)
}

func TestHabit_ZeroCompletions(t *testing.T) {
	h, _ := domain.NewHabit("Sleeping Early", domain.PeriodDaily, base)

	streaks, err := h.TrackStreaks()
	require.NoError(t, err)
	assert.Empty(t, streaks)
	assert.Equal(t, 0.0, domain.AverageStreakDuration(streaks))
	assert.Equal(t, 0, domain.LongestStreak(streaks))
	assert.Equal(t, 0, domain.ShortestStreak(streaks))
}
