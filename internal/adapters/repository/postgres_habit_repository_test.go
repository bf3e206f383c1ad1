package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/database"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	_ = godotenv.Load("../../../.env")

	cfg := config.Defaults().Database
	cfg.Pass = "secret"
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Pass = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Name = v
	}

	db, err := database.Connect(cfg)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}
	require.NoError(t, database.Migrate(cfg))
	return db
}

func cleanup(t *testing.T, db *sqlx.DB) {
	_, err := db.Exec("TRUNCATE TABLE habit_completions, habits RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to clean up database for Habit Repository tests")
}

func TestPostgresHabitRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	exerciseRepository(t, NewPostgresHabitRepository(db))
}

func TestPostgresHabitRepository_Completions_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresHabitRepository(db)
	ctx := context.Background()

	h := newFixture(t, "Exercise", domain.PeriodDaily, dayN(3), dayN(1), dayN(2))
	require.NoError(t, repo.Create(ctx, h))

	t.Run("Completions come back sorted as calendar days", func(t *testing.T) {
		got, err := repo.GetByName(ctx, "Exercise")
		require.NoError(t, err)
		assert.Equal(t, []time.Time{dayN(1), dayN(2), dayN(3)}, got.Completions)
	})

	t.Run("Delete cascades to completions", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "Exercise"))

		var count int
		require.NoError(t, db.Get(&count, `SELECT count(*) FROM habit_completions WHERE habit_name = $1`, "Exercise"))
		assert.Zero(t, count)
	})
}
