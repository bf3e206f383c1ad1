package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var _ domain.HabitRepository = (*PostgresHabitRepository)(nil)

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

type habitRow struct {
	Name         string    `db:"name"`
	Period       string    `db:"period"`
	CreationTime time.Time `db:"creation_time"`
}

type completionRow struct {
	HabitName   string    `db:"habit_name"`
	CompletedOn time.Time `db:"completed_on"`
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

func isUniqueViolation(err error) bool {
	return hasSQLState(err, uniqueViolation)
}

func completionDates(h *domain.Habit) []string {
	dates := domain.Normalize(h.Completions)
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.FormatDate(d))
	}
	return out
}

func insertCompletions(ctx context.Context, tx *sqlx.Tx, h *domain.Habit) error {
	dates := completionDates(h)
	if len(dates) == 0 {
		return nil
	}

	query := `
        INSERT INTO habit_completions (habit_name, completed_on)
        SELECT $1, d FROM unnest($2::date[]) AS d
        ON CONFLICT DO NOTHING`

	if _, err := tx.ExecContext(ctx, query, h.Name, pq.Array(dates)); err != nil {
		return fmt.Errorf("failed to insert completions: %w", err)
	}
	return nil
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO habits (name, period, creation_time)
        VALUES (:name, :period, :creation_time)`

	row := habitRow{Name: h.Name, Period: h.Period.String(), CreationTime: h.CreationTime}
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrHabitAlreadyExists
		}
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	if err := insertCompletions(ctx, tx, h); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresHabitRepository) GetByName(ctx context.Context, name string) (*domain.Habit, error) {
	var row habitRow
	err := r.db.GetContext(ctx, &row, `SELECT name, period, creation_time FROM habits WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	var completions []completionRow
	err = r.db.SelectContext(ctx, &completions, `
        SELECT habit_name, completed_on FROM habit_completions
        WHERE habit_name = $1
        ORDER BY completed_on ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return toHabit(row, completions), nil
}

func (r *PostgresHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	var rows []habitRow
	err := r.db.SelectContext(ctx, &rows, `SELECT name, period, creation_time FROM habits ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	var completions []completionRow
	err = r.db.SelectContext(ctx, &completions, `
        SELECT habit_name, completed_on FROM habit_completions
        ORDER BY habit_name, completed_on ASC`)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	byHabit := make(map[string][]completionRow, len(rows))
	for _, c := range completions {
		byHabit[c.HabitName] = append(byHabit[c.HabitName], c)
	}

	habits := make([]*domain.Habit, 0, len(rows))
	for _, row := range rows {
		habits = append(habits, toHabit(row, byHabit[row.Name]))
	}
	return habits, nil
}

// Update rewrites the habit row and replaces its completion set in one
// transaction.
func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE habits SET period = $1, creation_time = $2 WHERE name = $3`,
		h.Period.String(), h.CreationTime, h.Name)
	if err != nil {
		return fmt.Errorf("update query failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrHabitNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_completions WHERE habit_name = $1`, h.Name); err != nil {
		return fmt.Errorf("failed to clear completions: %w", err)
	}
	if err := insertCompletions(ctx, tx, h); err != nil {
		return err
	}

	return tx.Commit()
}

// AddCompletion inserts a single completion row. The primary key makes a second
// insert for the same day a no-op, and the foreign key rejects unknown habits.
func (r *PostgresHabitRepository) AddCompletion(ctx context.Context, name string, day time.Time) (bool, error) {
	query := `
        INSERT INTO habit_completions (habit_name, completed_on)
        VALUES ($1, $2::date)
        ON CONFLICT DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, name, domain.FormatDate(day))
	if err != nil {
		if hasSQLState(err, foreignKeyViolation) {
			return false, domain.ErrHabitNotFound
		}
		return false, fmt.Errorf("failed to insert completion: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *PostgresHabitRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}

	return nil
}

func toHabit(row habitRow, completions []completionRow) *domain.Habit {
	h := &domain.Habit{
		Name:         row.Name,
		Period:       domain.Period(row.Period),
		CreationTime: row.CreationTime.UTC(),
		Completions:  make([]time.Time, 0, len(completions)),
	}
	for _, c := range completions {
		h.Complete(c.CompletedOn)
	}
	return h
}
