package scheduler

import (
	"context"
	"time"

	"dealflow_backend/platform/logger"
)

const (
	defaultOverdueSweepInterval = 5 * time.Minute
	defaultOverdueSweepBatch    = 500
)

// OverdueSweepRunner flags every open task past its due date.
type OverdueSweepRunner interface {
	SweepOverdue(ctx context.Context, limit int) (int, error)
}

// OverdueSweeper periodically catches tasks whose scheduled check was lost.
type OverdueSweeper struct {
	runner   OverdueSweepRunner
	log      *logger.Logger
	interval time.Duration
	batch    int
}

func NewOverdueSweeper(runner OverdueSweepRunner, log *logger.Logger, interval time.Duration, batch int) *OverdueSweeper {
	if interval <= 0 {
		interval = defaultOverdueSweepInterval
	}
	if batch <= 0 {
		batch = defaultOverdueSweepBatch
	}
	return &OverdueSweeper{runner: runner, log: log, interval: interval, batch: batch}
}

func (s *OverdueSweeper) Run(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep drains full batches so a backlog clears in one tick.
func (s *OverdueSweeper) sweep(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := s.runner.SweepOverdue(ctx, s.batch)
		if err != nil {
			s.log.Warn("overdue sweep failed", "error", err)
			break
		}
		total += n
		if n < s.batch {
			break
		}
	}
	if total > 0 {
		s.log.Info("overdue sweep flagged tasks", "count", total)
	}
	return total
}
