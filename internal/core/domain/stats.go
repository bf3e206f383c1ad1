package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrSummaryNotCached = errors.New("streak summary not cached")

type StreakSpan struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type StreakSummary struct {
	HabitName      string       `json:"habit_name"`
	Period         Period       `json:"period"`
	Completions    int          `json:"completions"`
	Streaks        []StreakSpan `json:"streaks"`
	AverageStreak  float64      `json:"average_streak"`
	LongestStreak  int          `json:"longest_streak"`
	ShortestStreak int          `json:"shortest_streak"`
	ComputedAt     time.Time    `json:"computed_at"`
}

type RankedHabit struct {
	Name          string  `json:"name"`
	AverageStreak float64 `json:"average_streak"`
}

// Ranking holds the habits with the lowest and highest average streak. Both are
// nil when no habit has a completion yet.
type Ranking struct {
	Struggling *RankedHabit `json:"struggling,omitempty"`
	Best       *RankedHabit `json:"best,omitempty"`
}

type PeriodGroups struct {
	Daily  []string `json:"daily"`
	Weekly []string `json:"weekly"`
}

func Summarize(h *Habit, now time.Time) (*StreakSummary, error) {
	streaks, err := h.TrackStreaks()
	if err != nil {
		return nil, fmt.Errorf("habit %q: %w", h.Name, err)
	}

	spans := make([]StreakSpan, 0, len(streaks))
	for _, s := range streaks {
		spans = append(spans, StreakSpan{
			StartDate: s.Start().Format(dateLayout),
			EndDate:   s.End().Format(dateLayout),
			Days:      s.Duration(),
		})
	}

	return &StreakSummary{
		HabitName:      h.Name,
		Period:         h.Period,
		Completions:    len(Normalize(h.Completions)),
		Streaks:        spans,
		AverageStreak:  AverageStreakDuration(streaks),
		LongestStreak:  LongestStreak(streaks),
		ShortestStreak: ShortestStreak(streaks),
		ComputedAt:     now.UTC(),
	}, nil
}

// RankHabits picks the struggling (lowest average) and best (highest average)
// habit. Habits without completions are skipped; ties keep the earlier habit.
func RankHabits(habits []*Habit) (Ranking, error) {
	var ranking Ranking
	for _, h := range habits {
		if len(h.Completions) == 0 {
			continue
		}
		streaks, err := h.TrackStreaks()
		if err != nil {
			return Ranking{}, fmt.Errorf("habit %q: %w", h.Name, err)
		}
		if len(streaks) == 0 {
			continue
		}

		avg := AverageStreakDuration(streaks)
		if ranking.Struggling == nil || avg < ranking.Struggling.AverageStreak {
			ranking.Struggling = &RankedHabit{Name: h.Name, AverageStreak: avg}
		}
		if ranking.Best == nil || avg > ranking.Best.AverageStreak {
			ranking.Best = &RankedHabit{Name: h.Name, AverageStreak: avg}
		}
	}
	return ranking, nil
}

// LongestRunHabit returns the habit whose LongestAdjacencyRun is the largest.
// ok is false when habits is empty.
func LongestRunHabit(habits []*Habit) (name string, ok bool, err error) {
	best := -1
	for _, h := range habits {
		run, err := LongestAdjacencyRun(h.Completions, h.Period)
		if err != nil {
			return "", false, fmt.Errorf("habit %q: %w", h.Name, err)
		}
		if run > best {
			best = run
			name = h.Name
		}
	}
	return name, best >= 0, nil
}

func GroupByPeriod(habits []*Habit) PeriodGroups {
	groups := PeriodGroups{Daily: []string{}, Weekly: []string{}}
	for _, h := range habits {
		switch h.Period {
		case PeriodDaily:
			groups.Daily = append(groups.Daily, h.Name)
		case PeriodWeekly:
			groups.Weekly = append(groups.Weekly, h.Name)
		}
	}
	return groups
}
