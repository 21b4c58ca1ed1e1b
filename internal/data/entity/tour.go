package entity

import (
	"github.com/google/uuid"
)

type Tour struct {
	Base
	OwnerID      uuid.UUID `db:"owner_id"`
	Name         string    `db:"name"`
	Currency     string    `db:"currency"`
	PricePerSeat int64     `db:"price_per_seat"` // minor units
}
