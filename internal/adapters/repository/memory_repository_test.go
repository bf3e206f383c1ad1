package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var fixtureNow = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, name string, period domain.Period, completions ...time.Time) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(name, period, fixtureNow)
	require.NoError(t, err)
	for _, c := range completions {
		h.Complete(c)
	}
	return h
}

func dayN(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// exerciseRepository runs the contract every HabitRepository must satisfy.
func exerciseRepository(t *testing.T, repo domain.HabitRepository) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		h := newFixture(t, "Exercise", domain.PeriodDaily, dayN(1), dayN(0))
		require.NoError(t, repo.Create(ctx, h))

		got, err := repo.GetByName(ctx, "Exercise")
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodDaily, got.Period)
		assert.ElementsMatch(t, []time.Time{dayN(0), dayN(1)}, got.Completions)
		assert.True(t, got.CreationTime.Equal(fixtureNow))
	})

	t.Run("Fail: Duplicate name", func(t *testing.T) {
		err := repo.Create(ctx, newFixture(t, "Exercise", domain.PeriodWeekly))
		assert.ErrorIs(t, err, domain.ErrHabitAlreadyExists)
	})

	t.Run("List keeps creation order", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newFixture(t, "Reading", domain.PeriodWeekly)))
		require.NoError(t, repo.Create(ctx, newFixture(t, "Coding", domain.PeriodDaily)))

		habits, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, habits, 3)
		assert.Equal(t, "Exercise", habits[0].Name)
		assert.Equal(t, "Reading", habits[1].Name)
		assert.Equal(t, "Coding", habits[2].Name)
	})

	t.Run("Update replaces completions", func(t *testing.T) {
		h, err := repo.GetByName(ctx, "Reading")
		require.NoError(t, err)
		h.Complete(dayN(0))
		h.Complete(dayN(7))
		require.NoError(t, repo.Update(ctx, h))

		got, err := repo.GetByName(ctx, "Reading")
		require.NoError(t, err)
		assert.ElementsMatch(t, []time.Time{dayN(0), dayN(7)}, got.Completions)
	})

	t.Run("Fail: Update unknown habit", func(t *testing.T) {
		err := repo.Update(ctx, newFixture(t, "Ghost", domain.PeriodDaily))
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("AddCompletion records a day once", func(t *testing.T) {
		recorded, err := repo.AddCompletion(ctx, "Reading", dayN(14))
		require.NoError(t, err)
		assert.True(t, recorded)

		recorded, err = repo.AddCompletion(ctx, "Reading", dayN(14))
		require.NoError(t, err)
		assert.False(t, recorded)

		got, err := repo.GetByName(ctx, "Reading")
		require.NoError(t, err)
		assert.ElementsMatch(t, []time.Time{dayN(0), dayN(7), dayN(14)}, got.Completions)
	})

	t.Run("Fail: AddCompletion unknown habit", func(t *testing.T) {
		_, err := repo.AddCompletion(ctx, "Ghost", dayN(0))
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "Reading"))

		_, err := repo.GetByName(ctx, "Reading")
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)

		habits, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, habits, 2)

		assert.ErrorIs(t, repo.Delete(ctx, "Reading"), domain.ErrHabitNotFound)
	})
}

func TestInMemoryHabitRepository(t *testing.T) {
	exerciseRepository(t, NewInMemoryHabitRepository())
}

func TestInMemoryHabitRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryHabitRepository()

	h := newFixture(t, "Exercise", domain.PeriodDaily, dayN(0))
	require.NoError(t, repo.Create(ctx, h))
	h.Complete(dayN(1))

	got, err := repo.GetByName(ctx, "Exercise")
	require.NoError(t, err)
	got.Complete(dayN(2))

	again, err := repo.GetByName(ctx, "Exercise")
	require.NoError(t, err)
	assert.Len(t, again.Completions, 1)
}

func TestInMemoryHabitRepository_ConcurrentCompletions(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryHabitRepository()
	require.NoError(t, repo.Create(ctx, newFixture(t, "Exercise", domain.PeriodDaily)))

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recorded, err := repo.AddCompletion(ctx, "Exercise", dayN(i))
			assert.NoError(t, err)
			assert.True(t, recorded)
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByName(ctx, "Exercise")
	require.NoError(t, err)
	assert.Len(t, got.Completions, n)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
