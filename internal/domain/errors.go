package domain

import (
	"errors"
	"fmt"
)

// Expected outcomes of the booking workflow. Handlers map these to HTTP
// statuses with errors.Is; anything else is an infrastructure failure.
var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrTourNotFound     = errors.New("tour not found")
	ErrBookingNotFound  = errors.New("booking not found")

	ErrInvalidPartySize     = errors.New("party size must be at least 1")
	ErrMissingRequiredField = errors.New("missing required field")

	ErrInsufficientCapacity = errors.New("not enough seats available")
	ErrScheduleInactive     = errors.New("schedule is not open for booking")
	ErrHoldExpired          = errors.New("hold expired")
	ErrPaymentNotVerified   = errors.New("payment not verified")
	ErrInvalidState         = errors.New("booking state does not allow this operation")
	ErrForbidden            = errors.New("forbidden")
)

// ValidationError is a request rejected before it reaches persistence.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil && e.Field != "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

func (e ValidationError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrTourNotFound) ||
		errors.Is(err, ErrBookingNotFound)
}

// IsConflict reports outcomes the caller resolves by re-fetching state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientCapacity) ||
		errors.Is(err, ErrScheduleInactive) ||
		errors.Is(err, ErrInvalidState)
}

// IsExpected reports whether err belongs to the taxonomy above. Expected
// errors are logged at Warn or lower.
func IsExpected(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsConflict(err) ||
		errors.Is(err, ErrHoldExpired) ||
		errors.Is(err, ErrPaymentNotVerified) ||
		errors.Is(err, ErrForbidden)
}
