package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrMalformedPersistedDate = errors.New("malformed completion date (expected YYYY-MM-DD)")

// creationTimeLayouts are tried in order when reading creation_time. The second
// one is the space separated form older files were written with.
var creationTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// HabitRecord is the persisted representation of a habit.
type HabitRecord struct {
	Name         string   `json:"name"`
	Period       string   `json:"period"`
	CreationTime string   `json:"creation_time"`
	Completions  []string `json:"completions"`
}

func (h *Habit) ToRecord() HabitRecord {
	completions := make([]string, 0, len(h.Completions))
	for _, c := range h.Completions {
		completions = append(completions, DateOf(c).Format(dateLayout))
	}
	return HabitRecord{
		Name:         h.Name,
		Period:       h.Period.String(),
		CreationTime: h.CreationTime.Format(time.RFC3339Nano),
		Completions:  completions,
	}
}

// FromRecord rebuilds a habit. Completion strings must be exactly YYYY-MM-DD;
// same-day duplicates are dropped. Stored names are kept verbatim: the length
// limit applies when a habit is created, not when it is loaded.
func FromRecord(rec HabitRecord) (*Habit, error) {
	if rec.Name == "" {
		return nil, ErrHabitNameEmpty
	}
	period, err := ParsePeriod(rec.Period)
	if err != nil {
		return nil, fmt.Errorf("habit %q: %w", rec.Name, err)
	}

	habit := &Habit{
		Name:         rec.Name,
		Period:       period,
		CreationTime: parseCreationTime(rec.CreationTime),
		Completions:  make([]time.Time, 0, len(rec.Completions)),
	}

	for _, raw := range rec.Completions {
		day, err := ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("habit %q: %w", rec.Name, err)
		}
		habit.Complete(day)
	}
	return habit, nil
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil || t.Format(dateLayout) != raw {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedPersistedDate, raw)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return DateOf(t).Format(dateLayout)
}

func parseCreationTime(raw string) time.Time {
	for _, layout := range creationTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
