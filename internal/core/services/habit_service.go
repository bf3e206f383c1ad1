package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/utils"
)

const exampleDataMarker = "(with example data)"

var predefinedHabits = []string{
	"Exercise",
	"Exercise (with example data)",
	"Meditation",
	"Meditation (with example data)",
	"Reading",
	"Reading (with example data)",
	"Coding",
	"Coding (with example data)",
	"Sleeping Early",
	"Sleeping Early (with example data)",
}

// Notifier is told about every habit whose completions changed.
type Notifier interface {
	Enqueue(habitName string)
}

// SummaryInvalidator drops whatever summary is cached for a habit. It is called
// synchronously after each write, before the write is reported to the caller.
type SummaryInvalidator interface {
	Forget(ctx context.Context, habitName string)
}

type HabitService struct {
	repo     domain.HabitRepository
	clock    utils.Clock
	notifier Notifier
	summary  SummaryInvalidator

	// random is not safe for concurrent use.
	randomMu sync.Mutex
	random   domain.RandomSource
}

type HabitServiceOption func(*HabitService)

func WithClock(clock utils.Clock) HabitServiceOption {
	return func(s *HabitService) { s.clock = clock }
}

// WithRandomSource sets the source used to generate example data.
func WithRandomSource(src domain.RandomSource) HabitServiceOption {
	return func(s *HabitService) { s.random = src }
}

func WithNotifier(n Notifier) HabitServiceOption {
	return func(s *HabitService) { s.notifier = n }
}

func WithSummaryInvalidator(inv SummaryInvalidator) HabitServiceOption {
	return func(s *HabitService) { s.summary = inv }
}

func NewHabitService(repo domain.HabitRepository, opts ...HabitServiceOption) *HabitService {
	s := &HabitService{
		repo:  repo,
		clock: utils.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.random == nil {
		s.random = rand.New(rand.NewPCG(uint64(s.clock.Now().UnixNano()), 0))
	}
	return s
}

// NewSeededSource returns a reproducible source for example data.
func NewSeededSource(seed uint64) domain.RandomSource {
	return rand.New(rand.NewPCG(seed, seed))
}

type CreateHabitInput struct {
	Name            string
	Period          string
	WithExampleData bool
}

func PredefinedHabits() []string {
	out := make([]string, len(predefinedHabits))
	copy(out, predefinedHabits)
	return out
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	period, err := domain.ParsePeriod(input.Period)
	if err != nil {
		return nil, err
	}

	habit, err := domain.NewHabit(input.Name, period, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if input.WithExampleData || strings.Contains(habit.Name, exampleDataMarker) {
		s.randomMu.Lock()
		err := habit.Seed(s.random)
		s.randomMu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	s.changed(ctx, habit.Name)
	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, name string) (*domain.Habit, error) {
	return s.repo.GetByName(ctx, strings.TrimSpace(name))
}

func (s *HabitService) List(ctx context.Context) ([]*domain.Habit, error) {
	return s.repo.List(ctx)
}

// ListByPeriod filters List; an empty period returns everything.
func (s *HabitService) ListByPeriod(ctx context.Context, rawPeriod string) ([]*domain.Habit, error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if rawPeriod == "" {
		return habits, nil
	}

	period, err := domain.ParsePeriod(rawPeriod)
	if err != nil {
		return nil, err
	}
	filtered := make([]*domain.Habit, 0, len(habits))
	for _, h := range habits {
		if h.Period == period {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

func (s *HabitService) ListNames(ctx context.Context) ([]string, error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(habits))
	for _, h := range habits {
		names = append(names, h.Name)
	}
	return names, nil
}

func (s *HabitService) GroupByPeriod(ctx context.Context) (domain.PeriodGroups, error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return domain.PeriodGroups{}, err
	}
	return domain.GroupByPeriod(habits), nil
}

func (s *HabitService) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	s.changed(ctx, name)
	return nil
}

// Complete records a completion for today. recorded is false when the habit was
// already completed today.
func (s *HabitService) Complete(ctx context.Context, name string) (bool, error) {
	return s.CompleteOn(ctx, name, s.clock.Now())
}

// CompleteOn records a completion on the calendar day of at. The store adds the
// day on its own, so concurrent completions of one habit never overwrite each
// other.
func (s *HabitService) CompleteOn(ctx context.Context, name string, at time.Time) (bool, error) {
	name = strings.TrimSpace(name)

	recorded, err := s.repo.AddCompletion(ctx, name, domain.DateOf(at))
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			return false, err
		}
		return false, fmt.Errorf("saving completion for %q: %w", name, err)
	}
	if !recorded {
		return false, nil
	}

	s.changed(ctx, name)
	return true, nil
}

// changed invalidates the cached summary right away and then lets the notifier
// rebuild it in the background.
func (s *HabitService) changed(ctx context.Context, name string) {
	if s.summary != nil {
		s.summary.Forget(ctx, name)
	}
	if s.notifier != nil {
		s.notifier.Enqueue(name)
	}
}
