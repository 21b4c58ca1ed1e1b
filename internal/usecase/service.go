package usecase

import (
	"context"
	"errors"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/data/repository"
	"tour-booking/internal/domain"
	"tour-booking/pkg/clock"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	Availability AvailabilityService
	Hold         HoldService
	Sweep        SweepService
	Payment      PaymentService
	Tour         TourService
}

func NewService(repo *repository.Repository, provider payment.Provider, clk clock.Clock, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Availability: NewAvailabilityService(repo, clk, config.Booking.ReadRetryMax, log),
		Hold:         NewHoldService(repo, provider, clk, config.Booking.HoldDuration, log),
		Sweep:        NewSweepService(repo, provider, clk, config.Booking.SweepBatchSize, log),
		Payment:      NewPaymentService(repo, provider, clk, log),
		Tour:         NewTourService(repo, clk, log),
	}
}

func validationFailed(errs map[string]string) error {
	return domain.ValidationError{Msg: "validation failed: " + utils.FormatValidationErrors(errs)}
}

// findOwnedBooking loads a booking and checks that travelerID owns it.
func findOwnedBooking(ctx context.Context, repo repository.BookingRepository, travelerID, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TravelerID != travelerID {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

// intentReleaser cancels the provider intent of a booking that left the
// pending state without paying. Failures are logged, never returned: the
// booking transition has already happened.
type intentReleaser struct {
	repo     repository.BookingRepository
	provider payment.Provider
	log      *zap.Logger
}

func (r intentReleaser) release(ctx context.Context, booking *entity.Booking, now time.Time) {
	if booking.PaymentIntentID == nil {
		return
	}
	intentID := *booking.PaymentIntentID

	_, err := r.provider.CancelIntent(ctx, intentID)
	switch {
	case err == nil:
		r.log.Debug("Cancelled payment intent",
			zap.String("booking_id", booking.ID.String()),
			zap.String("intent_id", intentID),
		)
	case errors.Is(err, payment.ErrAlreadySucceeded):
		flagged, flagErr := r.repo.FlagRefund(ctx, booking.ID, intentID, now)
		if flagErr != nil {
			r.log.Error("Failed to flag refund",
				zap.Error(flagErr),
				zap.String("booking_id", booking.ID.String()),
				zap.String("intent_id", intentID),
			)
			return
		}
		r.log.Warn("Payment succeeded after the hold ended; refund required",
			zap.String("booking_id", booking.ID.String()),
			zap.String("intent_id", intentID),
			zap.Bool("flagged", flagged),
		)
	case errors.Is(err, payment.ErrIntentNotFound):
		r.log.Warn("Attached payment intent unknown to provider",
			zap.String("booking_id", booking.ID.String()),
			zap.String("intent_id", intentID),
		)
	default:
		r.log.Error("Failed to cancel payment intent",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("intent_id", intentID),
		)
	}
}
