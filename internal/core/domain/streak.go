package domain

import (
	"slices"
	"time"
)

const dateLayout = "2006-01-02"

// DateOf drops the time-of-day of t, keeping the calendar day t has in its own
// location. The result is midnight UTC so that day arithmetic is exact.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// daysBetween counts calendar days from from to to. DateOf pins both to
// midnight UTC, so the Unix seconds divide exactly and no Duration is involved.
func daysBetween(from, to time.Time) int {
	return int(DateOf(to).Unix()/secondsPerDay - DateOf(from).Unix()/secondsPerDay)
}

// Normalize returns the distinct calendar days of records in ascending order.
// The input slice is never reordered.
func Normalize(records []time.Time) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		dates = append(dates, DateOf(r))
	}

	slices.SortFunc(dates, func(a, b time.Time) int {
		return a.Compare(b)
	})

	return slices.CompactFunc(dates, func(a, b time.Time) bool {
		return a.Equal(b)
	})
}

type Streak struct {
	Dates []time.Time `json:"dates"`
}

func (s Streak) Start() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[0]
}

func (s Streak) End() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// Duration is the inclusive day span of the streak, 0 for an empty streak.
func (s Streak) Duration() int {
	return StreakDuration(s)
}

func StreakDuration(s Streak) int {
	if len(s.Dates) == 0 {
		return 0
	}
	return daysBetween(s.Start(), s.End()) + 1
}

// Partition splits ascending, distinct dates into maximal streaks. Two neighbours
// belong to the same streak when their gap does not exceed the period threshold.
func Partition(dates []time.Time, period Period) ([]Streak, error) {
	threshold, err := period.Threshold()
	if err != nil {
		return nil, err
	}

	streaks := []Streak{}
	if len(dates) == 0 {
		return streaks, nil
	}

	current := []time.Time{dates[0]}
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) <= threshold {
			current = append(current, dates[i])
			continue
		}
		streaks = append(streaks, Streak{Dates: current})
		current = []time.Time{dates[i]}
	}
	streaks = append(streaks, Streak{Dates: current})

	return streaks, nil
}

func AverageStreakDuration(streaks []Streak) float64 {
	if len(streaks) == 0 {
		return 0
	}
	total := 0
	for _, s := range streaks {
		total += s.Duration()
	}
	return float64(total) / float64(len(streaks))
}

func LongestStreak(streaks []Streak) int {
	if len(streaks) == 0 {
		return 0
	}
	best := streaks[0]
	for _, s := range streaks[1:] {
		if s.Duration() > best.Duration() {
			best = s
		}
	}
	return best.Duration()
}

func ShortestStreak(streaks []Streak) int {
	if len(streaks) == 0 {
		return 0
	}
	best := streaks[0]
	for _, s := range streaks[1:] {
		if s.Duration() < best.Duration() {
			best = s
		}
	}
	return best.Duration()
}

// LongestAdjacencyRun counts the adjacency transitions of the longest run in
// records: a run of n completions counts n-1. This is not the inclusive day span
// returned by LongestStreak; a weekly run of two completions scores 1 here and 8
// there.
func LongestAdjacencyRun(records []time.Time, period Period) (int, error) {
	threshold, err := period.Threshold()
	if err != nil {
		return 0, err
	}

	dates := Normalize(records)
	run, longest := 0, 0
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) <= threshold {
			run++
		} else {
			longest = max(longest, run)
			run = 0
		}
	}
	return max(longest, run), nil
}
