package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type bookingRepository struct{ s *Store }

func (r *bookingRepository) CreateHold(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	schedule, ok := r.s.schedules[booking.ScheduleID]
	if !ok {
		return domain.ErrScheduleNotFound
	}
	if schedule.Status != entity.ScheduleStatusActive {
		return domain.ErrScheduleInactive
	}

	reserved := r.s.reservedSeats(schedule.ID, booking.CreatedAt)
	if reserved+booking.PartySize > schedule.Capacity {
		r.s.log.Debug("Hold rejected",
			zap.String("schedule_id", schedule.ID.String()),
			zap.Int("requested", booking.PartySize),
			zap.Int("reserved", reserved),
			zap.Int("capacity", schedule.Capacity),
		)
		return fmt.Errorf("%w: requested %d, %d left", domain.ErrInsufficientCapacity,
			booking.PartySize, max(schedule.Capacity-reserved, 0))
	}

	r.s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *bookingRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	booking, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

func (r *bookingRepository) FindByTravelerID(_ context.Context, travelerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	bookings := r.filter(func(b *entity.Booking) bool { return b.TravelerID == travelerID })
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return page(bookings, limit, offset), nil
}

func (r *bookingRepository) CountByTravelerID(_ context.Context, travelerID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b *entity.Booking) bool { return b.TravelerID == travelerID }))), nil
}

func (r *bookingRepository) FindExpiredHolds(_ context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	bookings := r.filter(func(b *entity.Booking) bool {
		return b.Status == entity.BookingStatusPending && b.ExpiresAt != nil && !b.ExpiresAt.After(now)
	})
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].ExpiresAt.Before(*bookings[j].ExpiresAt)
	})
	return page(bookings, limit, 0), nil
}

func (r *bookingRepository) FindRefundRequired(_ context.Context, limit, offset int) ([]*entity.Booking, error) {
	bookings := r.filter(func(b *entity.Booking) bool { return b.PaymentStatus == entity.PaymentStatusRefundRequired })
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].UpdatedAt.After(bookings[j].UpdatedAt)
	})
	return page(bookings, limit, offset), nil
}

func (r *bookingRepository) CountRefundRequired(_ context.Context) (int64, error) {
	return int64(len(r.filter(func(b *entity.Booking) bool {
		return b.PaymentStatus == entity.PaymentStatusRefundRequired
	}))), nil
}

func (r *bookingRepository) MarkExpired(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return r.transition(id, func(b *entity.Booking) bool {
		if b.Status != entity.BookingStatusPending || b.ExpiresAt == nil || b.ExpiresAt.After(now) {
			return false
		}
		b.Status = entity.BookingStatusExpired
		b.UpdatedAt = now
		return true
	})
}

func (r *bookingRepository) Cancel(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return r.transition(id, func(b *entity.Booking) bool {
		if b.Status != entity.BookingStatusPending {
			return false
		}
		b.Status = entity.BookingStatusCancelled
		b.UpdatedAt = now
		return true
	})
}

func (r *bookingRepository) Confirm(_ context.Context, id uuid.UUID, intentID string, paidAt time.Time) (bool, error) {
	return r.transition(id, func(b *entity.Booking) bool {
		if !b.HoldActive(paidAt) || !b.HasIntent(intentID) {
			return false
		}
		b.Status = entity.BookingStatusConfirmed
		b.PaymentStatus = entity.PaymentStatusSucceeded
		b.PaidAt = &paidAt
		b.UpdatedAt = paidAt
		return true
	})
}

func (r *bookingRepository) AttachPaymentIntent(_ context.Context, id uuid.UUID, prevIntentID *string, intentID string, now time.Time) (bool, error) {
	return r.transition(id, func(b *entity.Booking) bool {
		if !b.HoldActive(now) {
			return false
		}
		switch {
		case prevIntentID == nil && b.PaymentIntentID != nil:
			return false
		case prevIntentID != nil && !b.HasIntent(*prevIntentID):
			return false
		}
		b.PaymentIntentID = &intentID
		b.PaymentStatus = entity.PaymentStatusProcessing
		b.PaymentAttempts++
		b.UpdatedAt = now
		return true
	})
}

func (r *bookingRepository) SetPaymentStatus(_ context.Context, id uuid.UUID, intentID string, status entity.PaymentStatus, now time.Time) (bool, error) {
	return r.transition(id, func(b *entity.Booking) bool {
		if b.Status != entity.BookingStatusPending || !b.HasIntent(intentID) {
			return false
		}
		b.PaymentStatus = status
		b.UpdatedAt = now
		return true
	})
}

func (r *bookingRepository) FlagRefund(_ context.Context, id uuid.UUID, intentID string, now time.Time) (bool, error) {
	return r.transition(id, func(b *entity.Booking) bool {
		if !b.HasIntent(intentID) || b.PaymentStatus == entity.PaymentStatusRefundRequired {
			return false
		}
		if b.Status != entity.BookingStatusExpired && b.Status != entity.BookingStatusCancelled {
			return false
		}
		b.PaymentStatus = entity.PaymentStatusRefundRequired
		b.UpdatedAt = now
		return true
	})
}

// transition applies apply to the stored booking under the write lock.
// apply reports whether its guard matched.
func (r *bookingRepository) transition(id uuid.UUID, apply func(b *entity.Booking) bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	booking, ok := r.s.bookings[id]
	if !ok {
		return false, nil
	}
	return apply(booking), nil
}

func (r *bookingRepository) filter(keep func(b *entity.Booking) bool) []*entity.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var bookings []*entity.Booking
	for _, b := range r.s.bookings {
		if keep(b) {
			bookings = append(bookings, cloneBooking(b))
		}
	}
	return bookings
}

func page(bookings []*entity.Booking, limit, offset int) []*entity.Booking {
	if offset >= len(bookings) {
		return nil
	}
	bookings = bookings[offset:]
	if limit > 0 && limit < len(bookings) {
		bookings = bookings[:limit]
	}
	return bookings
}
