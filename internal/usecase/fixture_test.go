package usecase

import (
	"context"
	"testing"
	"time"

	"tour-booking/internal/data/memory"
	"tour-booking/internal/data/repository"
	"tour-booking/internal/dto/request"
	"tour-booking/internal/dto/response"
	"tour-booking/pkg/payment"
	"tour-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

const holdDuration = 10 * time.Minute

type fixture struct {
	ctx        context.Context
	repo       *repository.Repository
	store      *memory.Store
	clock      *clockwork.FakeClock
	provider   *payment.MockProvider
	svc        *Service
	owner      uuid.UUID
	tourID     uuid.UUID
	scheduleID uuid.UUID
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()

	repo, store := memory.NewRepository(zap.NewNop())
	clk := clockwork.NewFakeClockAt(base)
	provider := payment.NewMockProvider("whsec_test", zap.NewNop())
	config := &utils.Config{
		Booking: utils.BookingConfig{
			HoldDuration:   holdDuration,
			SweepBatchSize: 2,
			ReadRetryMax:   1,
		},
	}

	f := &fixture{
		ctx:      context.Background(),
		repo:     repo,
		store:    store,
		clock:    clk,
		provider: provider,
		svc:      NewService(repo, provider, clk, config, zap.NewNop()),
		owner:    uuid.New(),
	}

	tour, err := f.svc.Tour.CreateTour(f.ctx, f.owner, &request.CreateTourRequest{
		Name:         "Harbour Kayak",
		Currency:     "USD",
		PricePerSeat: 4500,
	})
	require.NoError(t, err)
	f.tourID = uuid.MustParse(tour.ID)

	schedule, err := f.svc.Tour.CreateSchedule(f.ctx, f.owner, f.tourID, &request.CreateScheduleRequest{
		StartsAt: base.Add(72 * time.Hour),
		EndsAt:   base.Add(75 * time.Hour),
		Capacity: capacity,
	})
	require.NoError(t, err)
	f.scheduleID = uuid.MustParse(schedule.ID)

	return f
}

func (f *fixture) hold(t *testing.T, travelerID uuid.UUID, partySize int) *response.HoldResponse {
	t.Helper()
	resp, err := f.svc.Hold.CreateHold(f.ctx, travelerID, &request.CreateHoldRequest{
		ScheduleID: f.scheduleID.String(),
		PartySize:  partySize,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	resp, err := f.svc.Availability.GetAvailableSlots(f.ctx, f.scheduleID)
	require.NoError(t, err)
	return resp.AvailableSlots
}

func (f *fixture) startPayment(t *testing.T, travelerID uuid.UUID, bookingID string) *response.PaymentIntentResponse {
	t.Helper()
	resp, err := f.svc.Payment.StartPayment(f.ctx, travelerID, uuid.MustParse(bookingID))
	require.NoError(t, err)
	return resp
}
