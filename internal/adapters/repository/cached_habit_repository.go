package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const (
	habitListKey = "habits:list"
	habitListTTL = 30 * time.Minute
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

// CachedHabitRepository caches List in Redis and drops the cached list on
// every write that goes through it.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache *redis.Client
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client) *CachedHabitRepository {
	return &CachedHabitRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedHabitRepository) invalidate(ctx context.Context) {
	if err := r.cache.Del(ctx, habitListKey).Err(); err != nil {
		log.Warnf("[CACHE] Failed to invalidate habit list: %v", err)
	}
}

func (r *CachedHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	val, err := r.cache.Get(ctx, habitListKey).Result()
	if err == nil {
		var records []domain.HabitRecord
		if err := json.Unmarshal([]byte(val), &records); err == nil {
			if habits, err := fromRecords(records); err == nil {
				return habits, nil
			}
		}

		log.Warn("[CACHE] Corrupted habit list, cleaning up key")
		r.cache.Del(ctx, habitListKey)
	} else if !errors.Is(err, redis.Nil) {
		log.Warnf("[CACHE] Redis read error: %v", err)
	}

	habits, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.HabitRecord, 0, len(habits))
	for _, h := range habits {
		records = append(records, h.ToRecord())
	}
	if data, err := json.Marshal(records); err == nil {
		if setErr := r.cache.Set(ctx, habitListKey, data, habitListTTL).Err(); setErr != nil {
			log.Warnf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return habits, nil
}

func fromRecords(records []domain.HabitRecord) ([]*domain.Habit, error) {
	habits := make([]*domain.Habit, 0, len(records))
	for _, rec := range records {
		h, err := domain.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (r *CachedHabitRepository) GetByName(ctx context.Context, name string) (*domain.Habit, error) {
	return r.next.GetByName(ctx, name)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedHabitRepository) AddCompletion(ctx context.Context, name string, day time.Time) (bool, error) {
	recorded, err := r.next.AddCompletion(ctx, name, day)
	if err != nil {
		return false, err
	}
	if recorded {
		r.invalidate(ctx)
	}
	return recorded, nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, name string) error {
	if err := r.next.Delete(ctx, name); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}
