package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const LockKey = "guesthouse:sweep:lock"

// Scheduler invokes a job on a fixed interval. A tick whose lock is still
// held by an earlier run, here or on another replica, is skipped.
type Scheduler struct {
	job      func(ctx context.Context) error
	interval time.Duration
	lockTTL  time.Duration
	locker   Locker
	log      *zap.Logger
}

func New(job func(ctx context.Context) error, interval, lockTTL time.Duration, locker Locker, log *zap.Logger) *Scheduler {
	return &Scheduler{job: job, interval: interval, lockTTL: lockTTL, locker: locker, log: log}
}

// Run blocks until ctx is cancelled. The first run happens immediately.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler_started", zap.Duration("interval", s.interval))
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			s.log.Info("scheduler_stopped")
			return
		case <-ticker.C:
		}
	}
}

// tick reports whether the job ran.
func (s *Scheduler) tick(ctx context.Context) bool {
	release, ok, err := s.locker.TryLock(ctx, LockKey, s.lockTTL)
	if err != nil {
		s.log.Error("scheduler_lock_failed", zap.Error(err))
		return false
	}
	if !ok {
		s.log.Info("scheduler_tick_skipped", zap.String("reason", "previous run still holds the lock"))
		return false
	}
	defer func() {
		// release even if ctx was cancelled mid-run
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("scheduler_unlock_failed", zap.Error(err))
		}
	}()

	if err := s.job(ctx); err != nil {
		s.log.Error("scheduled_job_failed", zap.Error(err))
	}
	return true
}
