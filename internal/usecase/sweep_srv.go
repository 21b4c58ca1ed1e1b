package usecase

import (
	"context"
	"fmt"

	"tour-booking/internal/data/repository"
	"tour-booking/pkg/clock"
	"tour-booking/pkg/payment"

	"go.uber.org/zap"
)

// SweepService retires lapsed holds. Availability never depends on it
// running: lapsed holds stop counting at expires_at regardless.
type SweepService interface {
	// SweepExpired expires every pending hold with expires_at <= now and
	// returns how many transitions this call made.
	SweepExpired(ctx context.Context) (int, error)
}

type sweepService struct {
	repo      *repository.Repository
	clock     clock.Clock
	batchSize int
	releaser  intentReleaser
	log       *zap.Logger
}

func NewSweepService(repo *repository.Repository, provider payment.Provider, clk clock.Clock, batchSize int, log *zap.Logger) SweepService {
	log = log.With(zap.String("service", "sweep"))
	return &sweepService{
		repo:      repo,
		clock:     clk,
		batchSize: max(batchSize, 1),
		releaser:  intentReleaser{repo: repo.Booking, provider: provider, log: log},
		log:       log,
	}
}

func (s *sweepService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired := 0

	for {
		batch, err := s.repo.Booking.FindExpiredHolds(ctx, now, s.batchSize)
		if err != nil {
			return expired, fmt.Errorf("find expired holds: %w", err)
		}

		progressed := 0
		for _, booking := range batch {
			if err := ctx.Err(); err != nil {
				return expired, err
			}

			ok, err := s.repo.Booking.MarkExpired(ctx, booking.ID, now)
			if err != nil {
				s.log.Error("Failed to expire hold, skipping",
					zap.Error(err),
					zap.String("booking_id", booking.ID.String()),
				)
				continue
			}
			if !ok {
				// Confirmed, cancelled or expired by someone else first.
				continue
			}

			expired++
			progressed++
			s.releaser.release(ctx, booking, now)
		}

		// A short batch is the last one. A full batch with no progress is
		// all failures; stop rather than spin on them.
		if len(batch) < s.batchSize || progressed == 0 {
			break
		}
	}

	if expired > 0 {
		s.log.Info("Expired holds", zap.Int("count", expired), zap.Time("as_of", now))
	}

	return expired, nil
}
