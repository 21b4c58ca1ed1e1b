package entity

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent records a provider webhook delivery so replays are ignored.
type PaymentEvent struct {
	EventID    string     `db:"event_id"`
	Type       string     `db:"type"`
	IntentID   string     `db:"intent_id"`
	BookingID  *uuid.UUID `db:"booking_id"`
	ReceivedAt time.Time  `db:"received_at"`
}
