package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBooking_HoldActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expires := now.Add(10 * time.Minute)

	b := &Booking{Status: BookingStatusPending, ExpiresAt: &expires}

	assert.True(t, b.HoldActive(now))
	assert.True(t, b.HoldActive(expires.Add(-time.Nanosecond)))
	assert.False(t, b.HoldActive(expires), "hold lapses at exactly expires_at")
	assert.False(t, b.HoldActive(expires.Add(time.Minute)))
}

func TestBooking_ReservesSeats(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name    string
		booking Booking
		want    bool
	}{
		{"confirmed", Booking{Status: BookingStatusConfirmed, ExpiresAt: &past}, true},
		{"pending unexpired", Booking{Status: BookingStatusPending, ExpiresAt: &future}, true},
		{"pending lapsed but unswept", Booking{Status: BookingStatusPending, ExpiresAt: &past}, false},
		{"expired", Booking{Status: BookingStatusExpired, ExpiresAt: &future}, false},
		{"cancelled", Booking{Status: BookingStatusCancelled, ExpiresAt: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.ReservesSeats(now))
		})
	}
}
