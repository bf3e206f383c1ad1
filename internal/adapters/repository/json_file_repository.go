package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var _ domain.HabitRepository = (*JSONFileRepository)(nil)

// JSONFileRepository persists every habit as one JSON array in a single file.
// The file is read once when the repository is opened and rewritten after each
// successful mutation.
type JSONFileRepository struct {
	path  string
	cache *InMemoryHabitRepository

	// mu serializes mutations so that the file always reflects the last write.
	mu sync.Mutex
}

// NewJSONFileRepository opens the store at path, creating it with an empty
// array when it does not exist.
func NewJSONFileRepository(path string) (*JSONFileRepository, error) {
	r := &JSONFileRepository{
		path:  path,
		cache: NewInMemoryHabitRepository(),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *JSONFileRepository) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Infof("Habit file %s not found, creating an empty one", r.path)
		return r.writeRecords([]domain.HabitRecord{})
	}
	if err != nil {
		return fmt.Errorf("reading habit file %s: %w", r.path, err)
	}

	var records []domain.HabitRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding habit file %s: %w", r.path, err)
	}

	ctx := context.Background()
	for _, rec := range records {
		habit, err := domain.FromRecord(rec)
		if err != nil {
			return fmt.Errorf("loading %s: %w", r.path, err)
		}
		if err := r.cache.Create(ctx, habit); err != nil {
			return fmt.Errorf("loading %s: habit %q: %w", r.path, habit.Name, err)
		}
	}

	log.Debugf("Loaded %d habits from %s", len(records), r.path)
	return nil
}

func (r *JSONFileRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cache.Create(ctx, habit); err != nil {
		return err
	}
	if err := r.flush(ctx); err != nil {
		_ = r.cache.Delete(ctx, habit.Name)
		return err
	}
	return nil
}

func (r *JSONFileRepository) GetByName(ctx context.Context, name string) (*domain.Habit, error) {
	return r.cache.GetByName(ctx, name)
}

func (r *JSONFileRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	return r.cache.List(ctx)
}

func (r *JSONFileRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, err := r.cache.GetByName(ctx, habit.Name)
	if err != nil {
		return err
	}
	if err := r.cache.Update(ctx, habit); err != nil {
		return err
	}
	if err := r.flush(ctx); err != nil {
		_ = r.cache.Update(ctx, previous)
		return err
	}
	return nil
}

func (r *JSONFileRepository) AddCompletion(ctx context.Context, name string, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, err := r.cache.GetByName(ctx, name)
	if err != nil {
		return false, err
	}
	recorded, err := r.cache.AddCompletion(ctx, name, day)
	if err != nil || !recorded {
		return recorded, err
	}
	if err := r.flush(ctx); err != nil {
		_ = r.cache.Update(ctx, previous)
		return false, err
	}
	return true, nil
}

func (r *JSONFileRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed, pos, err := r.cache.take(name)
	if err != nil {
		return err
	}
	if err := r.flush(ctx); err != nil {
		r.cache.restore(removed, pos)
		return err
	}
	return nil
}

func (r *JSONFileRepository) flush(ctx context.Context) error {
	habits, err := r.cache.List(ctx)
	if err != nil {
		return err
	}
	records := make([]domain.HabitRecord, 0, len(habits))
	for _, h := range habits {
		records = append(records, h.ToRecord())
	}
	return r.writeRecords(records)
}

// writeRecords replaces the file atomically: a temp file in the same directory
// is written, synced and renamed over the target.
func (r *JSONFileRepository) writeRecords(records []domain.HabitRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding habits: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replacing %s: %w", r.path, err)
	}
	return nil
}
