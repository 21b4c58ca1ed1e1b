package worker

import (
	"context"
	"errors"
	"time"

	"tour-booking/internal/usecase"
	"tour-booking/pkg/clock"

	"go.uber.org/zap"
)

// Sweeper runs the expiry sweep once at start and then on every tick
// until its context is cancelled.
type Sweeper struct {
	sweep    usecase.SweepService
	clock    clock.Clock
	interval time.Duration
	log      *zap.Logger
}

func NewSweeper(sweep usecase.SweepService, clk clock.Clock, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		sweep:    sweep,
		clock:    clk,
		interval: interval,
		log:      log.With(zap.String("worker", "sweeper")),
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Sweeper started", zap.Duration("interval", s.interval))
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Sweeper stopped")
			return nil
		case <-ticker.Chan():
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	start := time.Now()
	expired, err := s.sweep.SweepExpired(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error("Sweep failed", zap.Error(err), zap.Int("expired", expired))
		return
	}

	s.log.Debug("Sweep finished",
		zap.Int("expired", expired),
		zap.Duration("took", time.Since(start)),
	)
}
