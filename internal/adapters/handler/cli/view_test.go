package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "1 day", FormatDays(1))
	assert.Equal(t, "0 days", FormatDays(0))
	assert.Equal(t, "14 days", FormatDays(14))
}

func TestFormatAverage(t *testing.T) {
	assert.Equal(t, "1.00 day", FormatAverage(1))
	assert.Equal(t, "2.50 days", FormatAverage(2.5))
	assert.Equal(t, "0.00 days", FormatAverage(0))
	assert.Equal(t, "3.33 days", FormatAverage(10.0/3))
}

func TestRenderRanking(t *testing.T) {
	t.Run("Both habits", func(t *testing.T) {
		var buf bytes.Buffer
		renderRanking(&buf, domain.Ranking{
			Struggling: &domain.RankedHabit{Name: "Meditation", AverageStreak: 1},
			Best:       &domain.RankedHabit{Name: "Exercise", AverageStreak: 5},
		})

		out := buf.String()
		assert.Contains(t, out, "The habit you struggle with the most is: ")
		assert.Contains(t, out, "Meditation")
		assert.Contains(t, out, "Average streak length: 1.00 days")
		assert.Contains(t, out, "The habit you are best at is: ")
		assert.Contains(t, out, "Average streak length: 5.00 days")
	})

	t.Run("Nothing completed yet", func(t *testing.T) {
		var buf bytes.Buffer
		renderRanking(&buf, domain.Ranking{})
		assert.Contains(t, buf.String(), "No struggling habits found.")
		assert.Contains(t, buf.String(), "No best habits found.")
	})
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, &domain.StreakSummary{
		HabitName: "Exercise",
		Period:    domain.PeriodDaily,
		Streaks: []domain.StreakSpan{
			{StartDate: "2024-03-01", EndDate: "2024-03-03", Days: 3},
			{StartDate: "2024-03-05", EndDate: "2024-03-05", Days: 1},
		},
		AverageStreak:  2,
		LongestStreak:  3,
		ShortestStreak: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "(Periodicity: daily)")
	assert.Contains(t, out, "- 2024-03-01 - 2024-03-03 (3 days)")
	assert.Contains(t, out, "- 2024-03-05 - 2024-03-05 (1 day)")
	assert.Contains(t, out, "Average streak length: 2.00 days")
	assert.Contains(t, out, "Shortest streak: 1 day")

	buf.Reset()
	renderSummary(&buf, &domain.StreakSummary{HabitName: "Idle", Period: domain.PeriodWeekly})
	assert.Contains(t, buf.String(), "No streaks found.")
}

func TestRenderPeriodGroups(t *testing.T) {
	var buf bytes.Buffer
	renderPeriodGroups(&buf, domain.PeriodGroups{Daily: []string{"Exercise", "Reading"}, Weekly: []string{}})
	assert.Contains(t, buf.String(), "Daily Habits: Exercise, Reading\n")
	assert.Contains(t, buf.String(), "Weekly Habits: \n")
}
