package entity

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// Schedule is one dated departure of a tour. Seats in use are never stored
// here; they are summed live from bookings so a lagging sweep cannot make
// the count stale.
type Schedule struct {
	Base
	TourID   uuid.UUID      `db:"tour_id"`
	StartsAt time.Time      `db:"starts_at"`
	EndsAt   time.Time      `db:"ends_at"`
	Capacity int            `db:"capacity"`
	Status   ScheduleStatus `db:"status"`
}
