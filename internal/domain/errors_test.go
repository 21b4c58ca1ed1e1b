package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("create hold: %w", ValidationError{
		Field: "party_size",
		Msg:   "must be at least 1",
		Err:   ErrInvalidPartySize,
	})

	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, ErrInvalidPartySize)
	assert.Contains(t, err.Error(), "party_size: must be at least 1")
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
		conflict bool
		expected bool
	}{
		{"schedule not found", fmt.Errorf("wrap: %w", ErrScheduleNotFound), true, false, true},
		{"booking not found", ErrBookingNotFound, true, false, true},
		{"capacity", ErrInsufficientCapacity, false, true, true},
		{"inactive schedule", ErrScheduleInactive, false, true, true},
		{"hold expired", ErrHoldExpired, false, false, true},
		{"payment not verified", ErrPaymentNotVerified, false, false, true},
		{"infrastructure", fmt.Errorf("connection reset"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.expected, IsExpected(tt.err))
		})
	}
}
