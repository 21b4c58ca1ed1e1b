package usecase

import (
	"errors"
	"testing"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/domain"
	"tour-booking/internal/dto/request"
	"tour-booking/pkg/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestScenario_FillScheduleThenExpireFirstHold(t *testing.T) {
	f := newFixture(t, 6)

	first := f.hold(t, uuid.New(), 3)
	assert.Equal(t, 3, f.available(t))

	f.clock.Advance(time.Minute)

	var g errgroup.Group
	for _, party := range []int{2, 1} {
		g.Go(func() error {
			_, err := f.svc.Hold.CreateHold(f.ctx, uuid.New(), &request.CreateHoldRequest{
				ScheduleID: f.scheduleID.String(),
				PartySize:  party,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 0, f.available(t))

	_, err := f.svc.Hold.CreateHold(f.ctx, uuid.New(), &request.CreateHoldRequest{
		ScheduleID: f.scheduleID.String(),
		PartySize:  1,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	f.clock.Advance(first.ExpiresAt.Sub(f.clock.Now()))
	n, err := f.svc.Sweep.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, f.available(t))
}

func TestScenario_PaymentStartedInTimeConfirmedTooLate(t *testing.T) {
	f := newFixture(t, 4)
	traveler := uuid.New()
	h := f.hold(t, traveler, 2)
	bookingID := uuid.MustParse(h.BookingID)

	f.clock.Advance(9 * time.Minute)
	intent := f.startPayment(t, traveler, h.BookingID)
	assert.NotEmpty(t, intent.ClientSecret)

	_, err := f.provider.SetStatus(intent.PaymentIntentID, payment.IntentSucceeded)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.svc.Payment.ConfirmPayment(f.ctx, traveler, bookingID, &request.ConfirmPaymentRequest{
		PaymentIntentID: intent.PaymentIntentID,
	})
	assert.ErrorIs(t, err, domain.ErrHoldExpired)

	booking, err := f.svc.Hold.GetBooking(f.ctx, traveler, bookingID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusExpired, booking.Status)
	assert.Equal(t, entity.PaymentStatusRefundRequired, booking.PaymentStatus)
	assert.Nil(t, booking.PaidAt)
}

// Confirmation and sweep racing at the same instant must resolve the same
// way every run: at expires_at the sweep wins, one tick earlier the
// confirmation wins.
func TestConfirmVersusSweep_SameInstantIsDeterministic(t *testing.T) {
	for _, tc := range []struct {
		name       string
		offset     time.Duration
		wantStatus entity.BookingStatus
	}{
		{"at expiry", 0, entity.BookingStatusExpired},
		{"just before expiry", -time.Nanosecond, entity.BookingStatusConfirmed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for run := 0; run < 20; run++ {
				f := newFixture(t, 4)
				traveler := uuid.New()
				h := f.hold(t, traveler, 1)
				bookingID := uuid.MustParse(h.BookingID)
				intent := f.startPayment(t, traveler, h.BookingID)

				_, err := f.provider.SetStatus(intent.PaymentIntentID, payment.IntentSucceeded)
				require.NoError(t, err)
				f.clock.Advance(h.ExpiresAt.Add(tc.offset).Sub(f.clock.Now()))

				var g errgroup.Group
				g.Go(func() error {
					_, err := f.svc.Payment.ConfirmPayment(f.ctx, traveler, bookingID, &request.ConfirmPaymentRequest{
						PaymentIntentID: intent.PaymentIntentID,
					})
					if err != nil && !errors.Is(err, domain.ErrHoldExpired) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					_, err := f.svc.Sweep.SweepExpired(f.ctx)
					return err
				})
				require.NoError(t, g.Wait())

				stored, err := f.repo.Booking.FindByID(f.ctx, bookingID)
				require.NoError(t, err)
				require.Equal(t, tc.wantStatus, stored.Status, "run %d", run)
			}
		})
	}
}
