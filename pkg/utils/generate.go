package utils

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateOrderID returns a human-facing booking reference in the form
// TOUR-YYYYMMDD-HHMMSS-NNNN. It is not unique on its own; the booking id is.
func GenerateOrderID(now time.Time) string {
	return fmt.Sprintf("TOUR-%s-%s-%04d",
		now.Format("20060102"),
		now.Format("150405"),
		rand.IntN(10000),
	)
}
