package reconcile

import (
	"context"

	"threads/internal/middleware"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Reconciler on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *Reconciler
}

// NewScheduler registers r under schedule, e.g. "@hourly" or "0 */6 * * *". An
// empty schedule returns a nil Scheduler, which is safe to Start and Stop.
func NewScheduler(r *Reconciler, schedule string) (*Scheduler, error) {
	if schedule == "" {
		return nil, nil
	}
	s := &Scheduler{cron: cron.New(), reconciler: r}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if _, err := s.reconciler.Run(ctx); err != nil {
		middleware.Logger.ErrorContext(ctx, "scheduled reconcile failed", "error", err)
	}
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	middleware.Logger.Info("reconcile scheduler started", "entries", len(s.cron.Entries()))
}

// Stop halts the schedule and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
	middleware.Logger.Info("reconcile scheduler stopped")
}
