package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func seedSchedule(t *testing.T, s *Store, capacity int) *entity.Schedule {
	t.Helper()
	repo := s.Repository()
	ctx := context.Background()

	tour := &entity.Tour{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: base, UpdatedAt: base},
		OwnerID:      uuid.New(),
		Name:         "Harbour Kayak",
		Currency:     "usd",
		PricePerSeat: 4500,
	}
	require.NoError(t, repo.Tour.Create(ctx, tour))

	schedule := &entity.Schedule{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: base, UpdatedAt: base},
		TourID:   tour.ID,
		StartsAt: base.Add(72 * time.Hour),
		EndsAt:   base.Add(75 * time.Hour),
		Capacity: capacity,
		Status:   entity.ScheduleStatusActive,
	}
	require.NoError(t, repo.Schedule.Create(ctx, schedule))
	return schedule
}

func hold(scheduleID uuid.UUID, partySize int, now time.Time) *entity.Booking {
	expires := now.Add(10 * time.Minute)
	return &entity.Booking{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OrderID:       "TOUR-" + uuid.NewString()[:8],
		ScheduleID:    scheduleID,
		TravelerID:    uuid.New(),
		PartySize:     partySize,
		Status:        entity.BookingStatusPending,
		ExpiresAt:     &expires,
		PaymentStatus: entity.PaymentStatusNone,
	}
}

func TestCreateHold_ConcurrentHoldsNeverOversell(t *testing.T) {
	s := NewStore(zap.NewNop())
	repo := s.Repository()
	schedule := seedSchedule(t, s, 10)

	var accepted, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			err := repo.Booking.CreateHold(context.Background(), hold(schedule.ID, 1, base))
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, domain.ErrInsufficientCapacity):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(10), accepted.Load())
	assert.Equal(t, int32(40), rejected.Load())

	_, reserved, err := repo.Schedule.FindWithReservedSeats(context.Background(), schedule.ID, base)
	require.NoError(t, err)
	assert.Equal(t, 10, reserved)
}

func TestCreateHold_LapsedHoldFreesSeatsBeforeSweep(t *testing.T) {
	s := NewStore(zap.NewNop())
	repo := s.Repository()
	ctx := context.Background()
	schedule := seedSchedule(t, s, 4)

	require.NoError(t, repo.Booking.CreateHold(ctx, hold(schedule.ID, 4, base)))
	assert.ErrorIs(t, repo.Booking.CreateHold(ctx, hold(schedule.ID, 1, base.Add(time.Minute))), domain.ErrInsufficientCapacity)

	later := base.Add(10 * time.Minute)
	require.NoError(t, repo.Booking.CreateHold(ctx, hold(schedule.ID, 4, later)))
}

func TestCreateHold_Rejections(t *testing.T) {
	s := NewStore(zap.NewNop())
	repo := s.Repository()
	ctx := context.Background()
	schedule := seedSchedule(t, s, 4)

	assert.ErrorIs(t, repo.Booking.CreateHold(ctx, hold(uuid.New(), 1, base)), domain.ErrScheduleNotFound)

	require.NoError(t, repo.Schedule.UpdateStatus(ctx, schedule.ID, entity.ScheduleStatusCancelled, base))
	assert.ErrorIs(t, repo.Booking.CreateHold(ctx, hold(schedule.ID, 1, base)), domain.ErrScheduleInactive)
}

func TestTransitions_FirstWriterWins(t *testing.T) {
	s := NewStore(zap.NewNop())
	repo := s.Repository()
	ctx := context.Background()
	schedule := seedSchedule(t, s, 4)

	b := hold(schedule.ID, 2, base)
	require.NoError(t, repo.Booking.CreateHold(ctx, b))

	ok, err := repo.Booking.AttachPaymentIntent(ctx, b.ID, nil, "pi_1", base)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Booking.AttachPaymentIntent(ctx, b.ID, nil, "pi_2", base)
	require.NoError(t, err)
	assert.False(t, ok, "second attach against a stale previous intent must lose")

	expiry := *b.ExpiresAt
	ok, err = repo.Booking.Confirm(ctx, b.ID, "pi_1", expiry)
	require.NoError(t, err)
	assert.False(t, ok, "confirmation at exactly expires_at loses to expiry")

	ok, err = repo.Booking.MarkExpired(ctx, b.ID, expiry)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Booking.Cancel(ctx, b.ID, expiry)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Booking.FlagRefund(ctx, b.ID, "pi_1", expiry)
	require.NoError(t, err)
	assert.True(t, ok)

	refunds, err := repo.Booking.FindRefundRequired(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, b.ID, refunds[0].ID)
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	s := NewStore(zap.NewNop())
	repo := s.Repository()
	ctx := context.Background()
	schedule := seedSchedule(t, s, 4)

	b := hold(schedule.ID, 1, base)
	require.NoError(t, repo.Booking.CreateHold(ctx, b))

	got, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	got.Status = entity.BookingStatusConfirmed

	again, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, again.Status)
}

func TestPaymentEvents_RecordOnce(t *testing.T) {
	repo := NewStore(zap.NewNop()).Repository()
	ctx := context.Background()

	event := &entity.PaymentEvent{EventID: "evt_1", Type: "payment_intent.succeeded", IntentID: "pi_1", ReceivedAt: base}

	ok, err := repo.PaymentEvent.Record(ctx, event)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.PaymentEvent.Record(ctx, event)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := repo.PaymentEvent.Exists(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, exists)
}
