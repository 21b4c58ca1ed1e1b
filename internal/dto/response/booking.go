package response

import (
	"math"
	"time"

	"tour-booking/internal/data/entity"
)

type HoldResponse struct {
	BookingID   string    `json:"booking_id"`
	OrderID     string    `json:"order_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
}

type BookingResponse struct {
	ID               string               `json:"id"`
	OrderID          string               `json:"order_id"`
	ScheduleID       string               `json:"schedule_id"`
	TravelerID       string               `json:"traveler_id"`
	PartySize        int                  `json:"party_size"`
	TotalAmount      int64                `json:"total_amount"`
	Currency         string               `json:"currency"`
	Status           entity.BookingStatus `json:"status"`
	ExpiresAt        *time.Time           `json:"expires_at,omitempty"`
	SecondsRemaining *int64               `json:"seconds_remaining,omitempty"`
	PaymentIntentID  *string              `json:"payment_intent_id,omitempty"`
	PaymentStatus    entity.PaymentStatus `json:"payment_status"`
	PaidAt           *time.Time           `json:"paid_at,omitempty"`
	Metadata         map[string]string    `json:"metadata,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

type PaymentIntentResponse struct {
	BookingID       string    `json:"booking_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	ClientSecret    string    `json:"client_secret"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type SweepResponse struct {
	Expired int `json:"expired"`
}

func HoldToResponse(b *entity.Booking) HoldResponse {
	return HoldResponse{
		BookingID:   b.ID.String(),
		OrderID:     b.OrderID,
		ExpiresAt:   *b.ExpiresAt,
		TotalAmount: b.TotalAmount,
		Currency:    b.Currency,
	}
}

// BookingToResponse renders b as seen at now. A pending hold past its
// expires_at is reported as expired even if the sweeper has not reached it.
func BookingToResponse(b *entity.Booking, now time.Time) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID.String(),
		OrderID:         b.OrderID,
		ScheduleID:      b.ScheduleID.String(),
		TravelerID:      b.TravelerID.String(),
		PartySize:       b.PartySize,
		TotalAmount:     b.TotalAmount,
		Currency:        b.Currency,
		Status:          b.Status,
		PaymentIntentID: b.PaymentIntentID,
		PaymentStatus:   b.PaymentStatus,
		PaidAt:          b.PaidAt,
		Metadata:        b.Metadata,
		CreatedAt:       b.CreatedAt,
	}

	if b.Status == entity.BookingStatusPending {
		resp.ExpiresAt = b.ExpiresAt
		if b.HoldActive(now) {
			secs := int64(math.Ceil(b.ExpiresAt.Sub(now).Seconds()))
			resp.SecondsRemaining = &secs
		} else {
			resp.Status = entity.BookingStatusExpired
		}
	}

	return resp
}
