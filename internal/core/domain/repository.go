package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
)

type HabitRepository interface {
	// Create persists a new habit. Names are unique: a second habit with the
	// same name fails with ErrHabitAlreadyExists.
	Create(ctx context.Context, habit *Habit) error

	// GetByName retrieves a habit by its name.
	GetByName(ctx context.Context, name string) (*Habit, error)

	// List returns every habit, in creation order.
	List(ctx context.Context) ([]*Habit, error)

	// Update replaces the stored state of an existing habit, completions included.
	Update(ctx context.Context, habit *Habit) error

	// AddCompletion records one completion on the calendar day of day without
	// touching the habit's other completions. recorded is false when that day
	// was already stored.
	AddCompletion(ctx context.Context, name string, day time.Time) (recorded bool, err error)

	// Delete removes a habit and all of its completions.
	Delete(ctx context.Context, name string) error
}

// SummaryCache stores precomputed streak summaries keyed by habit name.
type SummaryCache interface {
	// Get returns ErrSummaryNotCached on a miss.
	Get(ctx context.Context, name string) (*StreakSummary, error)
	Set(ctx context.Context, summary *StreakSummary) error
	Invalidate(ctx context.Context, name string) error
}
