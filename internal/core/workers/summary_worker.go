package workers

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const defaultQueueSize = 100

type SummaryRefresher interface {
	Refresh(ctx context.Context, name string) (*domain.StreakSummary, error)
}

type SummaryJob struct {
	HabitName string
}

// SummaryWorker re-warms cached streak summaries after habit writes. Writers
// invalidate the cache themselves; the worker only recomputes.
type SummaryWorker struct {
	refresher SummaryRefresher
	jobs      chan SummaryJob
}

func NewSummaryWorker(refresher SummaryRefresher, queueSize int) *SummaryWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &SummaryWorker{
		refresher: refresher,
		jobs:      make(chan SummaryJob, queueSize),
	}
}

func (w *SummaryWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Summary Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Summary Worker shutting down...")
				return
			}
		}
	}()
}

func (w *SummaryWorker) Enqueue(habitName string) {
	select {
	case w.jobs <- SummaryJob{HabitName: habitName}:
	default:
		log.Warnf("Summary Worker queue full! Dropping job for habit %q", habitName)
	}
}

func (w *SummaryWorker) processJob(ctx context.Context, job SummaryJob) {
	summary, err := w.refresher.Refresh(ctx, job.HabitName)
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			log.Debugf("Habit %q is gone, summary dropped", job.HabitName)
			return
		}
		log.Errorf("Worker failed to refresh summary for %q: %v", job.HabitName, err)
		return
	}

	log.WithFields(log.Fields{
		"habit":   summary.HabitName,
		"streaks": len(summary.Streaks),
		"longest": summary.LongestStreak,
	}).Debug("Summary refreshed")
}
