package response

import (
	"testing"
	"time"

	"tour-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingToResponse_SecondsRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expires := now.Add(90*time.Second + 300*time.Millisecond)
	b := &entity.Booking{Status: entity.BookingStatusPending, ExpiresAt: &expires}

	resp := BookingToResponse(b, now)
	require.NotNil(t, resp.SecondsRemaining)
	assert.Equal(t, int64(91), *resp.SecondsRemaining)

	resp = BookingToResponse(b, expires)
	assert.Nil(t, resp.SecondsRemaining)
	assert.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, entity.BookingStatusExpired, resp.Status, "lapsed holds read as expired before the sweep")

	b.Status = entity.BookingStatusConfirmed
	resp = BookingToResponse(b, now)
	assert.Nil(t, resp.ExpiresAt)
	assert.Nil(t, resp.SecondsRemaining)
}

func TestAvailableSlots_Clamped(t *testing.T) {
	assert.Equal(t, 3, AvailableSlots(10, 7))
	assert.Equal(t, 0, AvailableSlots(10, 12))
	assert.Equal(t, 10, AvailableSlots(10, -1))
}
