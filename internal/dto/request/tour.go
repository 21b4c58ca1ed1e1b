package request

import "time"

type CreateTourRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	Currency     string `json:"currency" validate:"required,iso4217"`
	PricePerSeat int64  `json:"price_per_seat" validate:"min=0"`
}

type CreateScheduleRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Capacity int       `json:"capacity" validate:"min=1,max=10000"`
}
