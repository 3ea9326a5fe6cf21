package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/wagerescrow/internal/logging"
)

// Pruner removes history older than a cutoff
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// HistoryMaintenanceScheduler periodically prunes the event history
type HistoryMaintenanceScheduler struct {
	scheduler *Scheduler
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

// NewHistoryMaintenanceScheduler prunes events older than retention once
// per interval. A zero interval defaults to daily.
func NewHistoryMaintenanceScheduler(pruner Pruner, retention, interval time.Duration) *HistoryMaintenanceScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &HistoryMaintenanceScheduler{
		scheduler: NewScheduler(),
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logging.Default.WithPrefix("HISTORY"),
	}
}

// Start initializes and starts the maintenance scheduler
func (s *HistoryMaintenanceScheduler) Start(ctx context.Context) {
	s.scheduler.AddTask("history_pruning", s.interval, s.prune)
	s.scheduler.Start(ctx)
	s.logger.Info("History maintenance scheduler started, retention %s", s.retention)
}

// Stop stops the maintenance scheduler
func (s *HistoryMaintenanceScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *HistoryMaintenanceScheduler) prune(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("Pruned %d events older than %s", n, cutoff.Format(time.RFC3339))
	}
	return nil
}
