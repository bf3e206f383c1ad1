package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var (
	gold    = lipgloss.Color("#FFD700")
	amber   = lipgloss.Color("#FFBF00")
	emerald = lipgloss.Color("#50C878")
	ruby    = lipgloss.Color("#E0115F")
	dim     = lipgloss.Color("#666666")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(gold)
	habitStyle   = lipgloss.NewStyle().Foreground(amber).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(emerald)
	errorStyle   = lipgloss.NewStyle().Foreground(ruby)
	mutedStyle   = lipgloss.NewStyle().Foreground(dim)
)

// FormatDays renders a day count as "1 day" or "N days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatAverage renders an average streak length with two decimals.
func FormatAverage(avg float64) string {
	if avg == 1 {
		return "1.00 day"
	}
	return fmt.Sprintf("%.2f days", avg)
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf(format, args...)))
}

func muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// PrintError writes a failed command's message.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("✗ "+err.Error()))
}

func renderHabitList(w io.Writer, habits []*domain.Habit) {
	if len(habits) == 0 {
		muted(w, "No habits tracked yet.")
		return
	}
	for _, h := range habits {
		fmt.Fprintf(w, "%s (%s, %d completions)\n", habitStyle.Render(h.Name), h.Period, len(domain.Normalize(h.Completions)))
	}
}

func renderNames(w io.Writer, title string, names []string) {
	fmt.Fprintln(w, titleStyle.Render(title))
	for i, name := range names {
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
	}
}

func renderPeriodGroups(w io.Writer, groups domain.PeriodGroups) {
	fmt.Fprintln(w, titleStyle.Render("Habits by Periodicity:"))
	fmt.Fprintf(w, "Daily Habits: %s\n", strings.Join(groups.Daily, ", "))
	fmt.Fprintf(w, "Weekly Habits: %s\n", strings.Join(groups.Weekly, ", "))
}

func renderSummary(w io.Writer, s *domain.StreakSummary) {
	fmt.Fprintf(w, "Habit: %s (Periodicity: %s)\n", habitStyle.Render(s.HabitName), s.Period)
	if len(s.Streaks) == 0 {
		muted(w, "No streaks found.")
		return
	}
	for _, span := range s.Streaks {
		fmt.Fprintf(w, "- %s - %s (%s)\n", span.StartDate, span.EndDate, FormatDays(span.Days))
	}
	fmt.Fprintf(w, "  Average streak length: %s\n", FormatAverage(s.AverageStreak))
	fmt.Fprintf(w, "  Longest streak: %s\n", FormatDays(s.LongestStreak))
	fmt.Fprintf(w, "  Shortest streak: %s\n", FormatDays(s.ShortestStreak))
}

func renderReport(w io.Writer, report []*domain.StreakSummary) {
	fmt.Fprintln(w, titleStyle.Render("Streaks for all habits:"))
	for _, s := range report {
		renderSummary(w, s)
	}
}

func renderRanking(w io.Writer, r domain.Ranking) {
	if r.Struggling != nil {
		fmt.Fprintf(w, "The habit you struggle with the most is: %s\n", habitStyle.Render(r.Struggling.Name))
		fmt.Fprintf(w, "Average streak length: %.2f days\n", r.Struggling.AverageStreak)
	} else {
		muted(w, "No struggling habits found.")
	}
	if r.Best != nil {
		fmt.Fprintf(w, "The habit you are best at is: %s\n", habitStyle.Render(r.Best.Name))
		fmt.Fprintf(w, "Average streak length: %.2f days\n", r.Best.AverageStreak)
	} else {
		muted(w, "No best habits found.")
	}
}
