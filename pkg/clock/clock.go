// Package clock keeps hold expiry and the sweeper loop on an injectable time
// source. Tests drive it with clockwork's fake clock.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source used by services and workers.
type Clock = clockwork.Clock

// Real returns the wall clock, reporting times in UTC so stored expiries and
// order references do not depend on the host zone.
func Real() Clock { return utcClock{Clock: clockwork.NewRealClock()} }

type utcClock struct {
	clockwork.Clock
}

func (c utcClock) Now() time.Time { return c.Clock.Now().UTC() }
