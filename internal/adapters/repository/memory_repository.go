package repository

import (
	"context"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var _ domain.HabitRepository = (*InMemoryHabitRepository)(nil)

// InMemoryHabitRepository keeps habits in process memory. Callers always get
// copies, so mutating a returned habit never changes the store.
type InMemoryHabitRepository struct {
	store map[string]*domain.Habit
	order []string

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[habit.Name]; exists {
		return domain.ErrHabitAlreadyExists
	}

	r.store[habit.Name] = habit.Clone()
	r.order = append(r.order, habit.Name)
	return nil
}

func (r *InMemoryHabitRepository) GetByName(ctx context.Context, name string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[name]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return habit.Clone(), nil
}

func (r *InMemoryHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := make([]*domain.Habit, 0, len(r.order))
	for _, name := range r.order {
		habits = append(habits, r.store[name].Clone())
	}
	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[habit.Name]; !ok {
		return domain.ErrHabitNotFound
	}

	r.store[habit.Name] = habit.Clone()
	return nil
}

func (r *InMemoryHabitRepository) AddCompletion(ctx context.Context, name string, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit, ok := r.store[name]
	if !ok {
		return false, domain.ErrHabitNotFound
	}
	return habit.Complete(day), nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[name]; !ok {
		return domain.ErrHabitNotFound
	}

	r.remove(name)
	return nil
}

// remove drops name and returns the habit with its position in the listing
// order. The caller holds mu.
func (r *InMemoryHabitRepository) remove(name string) (*domain.Habit, int) {
	habit := r.store[name]
	delete(r.store, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return habit, i
		}
	}
	return habit, len(r.order)
}

// take removes a habit and hands it back so that restore can put it in the
// same place again.
func (r *InMemoryHabitRepository) take(name string) (*domain.Habit, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[name]; !ok {
		return nil, 0, domain.ErrHabitNotFound
	}
	habit, pos := r.remove(name)
	return habit, pos, nil
}

func (r *InMemoryHabitRepository) restore(habit *domain.Habit, pos int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pos > len(r.order) {
		pos = len(r.order)
	}
	r.store[habit.Name] = habit
	r.order = append(r.order[:pos], append([]string{habit.Name}, r.order[pos:]...)...)
}
