package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func TestJSONFileRepository(t *testing.T) {
	repo, err := NewJSONFileRepository(filepath.Join(t.TempDir(), "habits.json"))
	require.NoError(t, err)

	exerciseRepository(t, repo)
}

func TestJSONFileRepository_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing file is created empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "habits.json")

		repo, err := NewJSONFileRepository(path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))

		habits, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, habits)
	})

	t.Run("Reads the legacy format and drops duplicate days", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "habits.json")
		legacy := `[
  {"name": "Exercise", "period": "daily", "creation_time": "2023-05-01 10:15:30.123456",
   "completions": ["2023-05-02", "2023-05-01", "2023-05-02"]},
  {"name": "Reading", "period": "weekly", "creation_time": "not a time", "completions": []}
]`
		require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

		repo, err := NewJSONFileRepository(path)
		require.NoError(t, err)

		ex, err := repo.GetByName(ctx, "Exercise")
		require.NoError(t, err)
		assert.Len(t, ex.Completions, 2)
		assert.Equal(t, time.Date(2023, 5, 1, 10, 15, 30, 123456000, time.UTC), ex.CreationTime)

		rd, err := repo.GetByName(ctx, "Reading")
		require.NoError(t, err)
		assert.True(t, rd.CreationTime.IsZero())
	})

	t.Run("Fail: Malformed completion date", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "habits.json")
		bad := `[{"name": "Exercise", "period": "daily", "creation_time": "", "completions": ["2023/05/01"]}]`
		require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

		_, err := NewJSONFileRepository(path)
		assert.ErrorIs(t, err, domain.ErrMalformedPersistedDate)
		assert.ErrorContains(t, err, "Exercise")
		assert.ErrorContains(t, err, "2023/05/01")
	})

	t.Run("Fail: Not a JSON array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "habits.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"oops": true}`), 0o644))

		_, err := NewJSONFileRepository(path)
		assert.Error(t, err)
	})
}

func TestJSONFileRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "habits.json")

	repo, err := NewJSONFileRepository(path)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, newFixture(t, "Exercise", domain.PeriodDaily, dayN(2), dayN(0))))
	require.NoError(t, repo.Create(ctx, newFixture(t, "Reading", domain.PeriodWeekly, dayN(0))))

	var records []domain.HabitRecord
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Exercise", records[0].Name)
	assert.Equal(t, "daily", records[0].Period)
	assert.Equal(t, []string{"2024-03-03", "2024-03-01"}, records[0].Completions)
	assert.Equal(t, fixtureNow.Format(time.RFC3339Nano), records[0].CreationTime)

	reopened, err := NewJSONFileRepository(path)
	require.NoError(t, err)
	habits, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, "Exercise", habits[0].Name)
	assert.Equal(t, "Reading", habits[1].Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestJSONFileRepository_RollsBackFailedWrites(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "store")
	require.NoError(t, os.Mkdir(dir, 0o755))

	repo, err := NewJSONFileRepository(filepath.Join(dir, "habits.json"))
	require.NoError(t, err)
	for _, name := range []string{"Exercise", "Reading", "Coding"} {
		require.NoError(t, repo.Create(ctx, newFixture(t, name, domain.PeriodDaily, dayN(0))))
	}

	// Moving the directory away makes every later write fail.
	moved := filepath.Join(root, "moved")
	require.NoError(t, os.Rename(dir, moved))

	t.Run("Delete", func(t *testing.T) {
		err := repo.Delete(ctx, "Reading")
		require.Error(t, err)

		habits, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Exercise", "Reading", "Coding"}, names(habits))
	})

	t.Run("AddCompletion", func(t *testing.T) {
		recorded, err := repo.AddCompletion(ctx, "Exercise", dayN(1))
		require.Error(t, err)
		assert.False(t, recorded)

		got, err := repo.GetByName(ctx, "Exercise")
		require.NoError(t, err)
		assert.Equal(t, []time.Time{dayN(0)}, got.Completions)
	})

	t.Run("Create", func(t *testing.T) {
		require.Error(t, repo.Create(ctx, newFixture(t, "Sleeping", domain.PeriodWeekly)))

		_, err := repo.GetByName(ctx, "Sleeping")
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("Writes succeed again once the directory is back", func(t *testing.T) {
		require.NoError(t, os.Rename(moved, dir))
		require.NoError(t, repo.Delete(ctx, "Reading"))

		reopened, err := NewJSONFileRepository(filepath.Join(dir, "habits.json"))
		require.NoError(t, err)
		habits, err := reopened.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Exercise", "Coding"}, names(habits))
	})
}
