package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/utils"
)

type StreakService struct {
	repo  domain.HabitRepository
	cache domain.SummaryCache
	clock utils.Clock

	// cacheMu orders cache writes against invalidations. generations counts the
	// invalidations per habit, so a summary computed before one is never stored.
	cacheMu     sync.Mutex
	generations map[string]uint64
}

// NewStreakService builds the analytics service. cache may be nil.
func NewStreakService(repo domain.HabitRepository, cache domain.SummaryCache, clock utils.Clock) *StreakService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &StreakService{
		repo:        repo,
		cache:       cache,
		clock:       clock,
		generations: make(map[string]uint64),
	}
}

func (s *StreakService) TrackStreaks(ctx context.Context, name string) ([]domain.Streak, error) {
	habit, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return habit.TrackStreaks()
}

func (s *StreakService) Summary(ctx context.Context, name string) (*domain.StreakSummary, error) {
	name = strings.TrimSpace(name)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, name)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrSummaryNotCached) {
			log.Warnf("[CACHE] Summary read failed for %q: %v", name, err)
		}
	}

	return s.Refresh(ctx, name)
}

// Refresh recomputes a habit's summary from the repository and stores it in the
// cache, bypassing any cached value.
func (s *StreakService) Refresh(ctx context.Context, name string) (*domain.StreakSummary, error) {
	generation := s.generation(name)

	habit, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	summary, err := domain.Summarize(habit, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.store(ctx, summary, generation)
	}
	return summary, nil
}

func (s *StreakService) generation(name string) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generations[name]
}

// store caches summary unless the habit was invalidated after generation was read.
func (s *StreakService) store(ctx context.Context, summary *domain.StreakSummary, generation uint64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.generations[summary.HabitName] != generation {
		log.Debugf("[CACHE] Summary for %q changed while computing, not caching", summary.HabitName)
		return
	}
	if err := s.cache.Set(ctx, summary); err != nil {
		log.Warnf("[CACHE] Summary write failed for %q: %v", summary.HabitName, err)
	}
}

// Forget drops the cached summary of a habit.
func (s *StreakService) Forget(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.generations[name]++
	if err := s.cache.Invalidate(ctx, name); err != nil {
		log.Warnf("[CACHE] Failed to invalidate summary for %q: %v", name, err)
	}
}

// Report summarizes every habit, in repository order.
func (s *StreakService) Report(ctx context.Context) ([]*domain.StreakSummary, error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	report := make([]*domain.StreakSummary, 0, len(habits))
	for _, h := range habits {
		summary, err := domain.Summarize(h, now)
		if err != nil {
			return nil, err
		}
		report = append(report, summary)
	}
	return report, nil
}

func (s *StreakService) Ranking(ctx context.Context) (domain.Ranking, error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return domain.Ranking{}, err
	}
	return domain.RankHabits(habits)
}

// LongestRun names the habit with the longest run of adjacent completions. ok is
// false when the tracker has no habits.
func (s *StreakService) LongestRun(ctx context.Context) (name string, ok bool, err error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return "", false, err
	}
	return domain.LongestRunHabit(habits)
}
