package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

type PaymentStatus string

const (
	PaymentStatusNone           PaymentStatus = "none"
	PaymentStatusProcessing     PaymentStatus = "processing"
	PaymentStatusSucceeded      PaymentStatus = "succeeded"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusCanceled       PaymentStatus = "canceled"
	PaymentStatusRefundRequired PaymentStatus = "refund_required"
)

type Booking struct {
	Base
	OrderID         string            `db:"order_id"`
	ScheduleID      uuid.UUID         `db:"schedule_id"`
	TravelerID      uuid.UUID         `db:"traveler_id"`
	PartySize       int               `db:"party_size"`
	TotalAmount     int64             `db:"total_amount"` // minor units
	Currency        string            `db:"currency"`
	Status          BookingStatus     `db:"status"`
	ExpiresAt       *time.Time        `db:"expires_at"`
	PaymentIntentID *string           `db:"payment_intent_id"`
	PaymentStatus   PaymentStatus     `db:"payment_status"`
	PaymentAttempts int               `db:"payment_attempts"`
	PaidAt          *time.Time        `db:"paid_at"`
	Metadata        map[string]string `db:"metadata"`
}

// HoldActive reports whether the booking is pending and its hold has not
// lapsed at now. A hold expires at exactly expires_at.
func (b *Booking) HoldActive(now time.Time) bool {
	return b.Status == BookingStatusPending && b.ExpiresAt != nil && b.ExpiresAt.After(now)
}

// ReservesSeats reports whether the booking counts against capacity at now.
func (b *Booking) ReservesSeats(now time.Time) bool {
	return b.Status == BookingStatusConfirmed || b.HoldActive(now)
}

func (b *Booking) HasIntent(intentID string) bool {
	return b.PaymentIntentID != nil && *b.PaymentIntentID == intentID
}
