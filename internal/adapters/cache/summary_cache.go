package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const (
	summaryKeyPrefix  = "streaks:summary:"
	DefaultSummaryTTL = time.Hour
)

var _ domain.SummaryCache = (*RedisSummaryCache)(nil)

// RedisSummaryCache stores JSON encoded streak summaries, one key per habit.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func summaryKey(name string) string {
	return summaryKeyPrefix + name
}

func (c *RedisSummaryCache) Get(ctx context.Context, name string) (*domain.StreakSummary, error) {
	val, err := c.client.Get(ctx, summaryKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSummaryNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", summaryKey(name), err)
	}

	var summary domain.StreakSummary
	if err := json.Unmarshal(val, &summary); err != nil {
		c.client.Del(ctx, summaryKey(name))
		return nil, fmt.Errorf("%w: corrupted entry for %q", domain.ErrSummaryNotCached, name)
	}
	return &summary, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, summary *domain.StreakSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary for %q: %w", summary.HabitName, err)
	}
	return c.client.Set(ctx, summaryKey(summary.HabitName), data, c.ttl).Err()
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, name string) error {
	return c.client.Del(ctx, summaryKey(name)).Err()
}
