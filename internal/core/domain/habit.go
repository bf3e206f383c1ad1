package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrHabitNameEmpty     = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong   = errors.New("habit name is too long (max 100 chars)")
	ErrInvalidPeriod      = errors.New("invalid habit period (must be daily or weekly)")
	ErrHabitAlreadyExists = errors.New("habit already exists")
)

type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"

	MaxNameLen = 100
)

// ParsePeriod validates raw user input. Matching is exact, like the persisted form.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.TrimSpace(raw))
	if _, err := p.Threshold(); err != nil {
		return "", err
	}
	return p, nil
}

// Threshold is the largest gap, in days, between two completions of the same streak.
func (p Period) Threshold() (int, error) {
	switch p {
	case PeriodDaily:
		return 1, nil
	case PeriodWeekly:
		return 7, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
	}
}

func (p Period) String() string {
	return string(p)
}

type Habit struct {
	Name         string      `json:"name"`
	Period       Period      `json:"period"`
	CreationTime time.Time   `json:"creation_time"`
	Completions  []time.Time `json:"completions"`
}

func NewHabit(name string, period Period, now time.Time) (*Habit, error) {
	cleanName, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if _, err := period.Threshold(); err != nil {
		return nil, err
	}

	return &Habit{
		Name:         cleanName,
		Period:       period,
		CreationTime: now,
		Completions:  []time.Time{},
	}, nil
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrHabitNameEmpty
	}
	if len(trimmed) > MaxNameLen {
		return "", ErrHabitNameTooLong
	}
	return trimmed, nil
}

// Complete records a completion on the calendar day of at. It reports false when
// that day is already recorded.
func (h *Habit) Complete(at time.Time) bool {
	day := DateOf(at)
	if h.CompletedOn(day) {
		return false
	}
	h.Completions = append(h.Completions, day)
	return true
}

func (h *Habit) CompletedOn(at time.Time) bool {
	day := DateOf(at)
	for _, c := range h.Completions {
		if DateOf(c).Equal(day) {
			return true
		}
	}
	return false
}

// StartDate returns the earliest completion day, if any.
func (h *Habit) StartDate() (time.Time, bool) {
	if len(h.Completions) == 0 {
		return time.Time{}, false
	}
	first := DateOf(h.Completions[0])
	for _, c := range h.Completions[1:] {
		if d := DateOf(c); d.Before(first) {
			first = d
		}
	}
	return first, true
}

// Seed merges generated example completions into the habit.
func (h *Habit) Seed(src RandomSource) error {
	dates, err := GenerateExampleData(h.Period, src)
	if err != nil {
		return err
	}
	for _, d := range dates {
		h.Complete(d)
	}
	return nil
}

func (h *Habit) TrackStreaks() ([]Streak, error) {
	return Partition(Normalize(h.Completions), h.Period)
}

func (h *Habit) Clone() *Habit {
	c := *h
	c.Completions = make([]time.Time, len(h.Completions))
	copy(c.Completions, h.Completions)
	return &c
}
