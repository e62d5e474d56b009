package scheduler

import (
	"context"
	"log/slog"
	"time"

	"post_syncer/internal/domain"
)

// Syncer runs one reconciliation pass.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncResult, error)
}

type Config struct {
	Interval   time.Duration
	RunTimeout time.Duration
	RunOnStart bool
}

type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	runTimeout time.Duration
	runOnStart bool
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:     syncer,
		interval:   cfg.Interval,
		runTimeout: cfg.RunTimeout,
		runOnStart: cfg.RunOnStart,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start blocks until ctx is done, triggering a sync every interval.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"interval", s.interval,
		"run_timeout", s.runTimeout,
		"run_on_start", s.runOnStart,
	)

	if s.runOnStart {
		s.runSync(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		syncCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	result, err := s.syncer.Sync(syncCtx)
	if err != nil {
		s.logger.Error("scheduled sync failed", "error", err)
		return
	}

	s.logger.Info("scheduled sync finished", "log_lines", len(result.Log))
}
