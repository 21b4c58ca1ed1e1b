package response

import (
	"time"

	"tour-booking/internal/data/entity"
)

type TourResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Currency     string    `json:"currency"`
	PricePerSeat int64     `json:"price_per_seat"`
	CreatedAt    time.Time `json:"created_at"`
}

type ScheduleResponse struct {
	ID             string                `json:"id"`
	TourID         string                `json:"tour_id"`
	StartsAt       time.Time             `json:"starts_at"`
	EndsAt         time.Time             `json:"ends_at"`
	Capacity       int                   `json:"capacity"`
	BookedCount    int                   `json:"booked_count"`
	AvailableSlots int                   `json:"available_slots"`
	Status         entity.ScheduleStatus `json:"status"`
}

type AvailabilityResponse struct {
	ScheduleID     string `json:"schedule_id"`
	AvailableSlots int    `json:"available_slots"`
}

func TourToResponse(t *entity.Tour) TourResponse {
	return TourResponse{
		ID:           t.ID.String(),
		OwnerID:      t.OwnerID.String(),
		Name:         t.Name,
		Currency:     t.Currency,
		PricePerSeat: t.PricePerSeat,
		CreatedAt:    t.CreatedAt,
	}
}

// ScheduleToResponse clamps availability to [0, capacity].
func ScheduleToResponse(s *entity.Schedule, reserved int) ScheduleResponse {
	return ScheduleResponse{
		ID:             s.ID.String(),
		TourID:         s.TourID.String(),
		StartsAt:       s.StartsAt,
		EndsAt:         s.EndsAt,
		Capacity:       s.Capacity,
		BookedCount:    reserved,
		AvailableSlots: AvailableSlots(s.Capacity, reserved),
		Status:         s.Status,
	}
}

func AvailableSlots(capacity, reserved int) int {
	return min(max(capacity-reserved, 0), capacity)
}
