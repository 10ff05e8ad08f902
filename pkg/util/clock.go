package util

import "time"

// Clock abstracts wall-clock access so time-seeded components (nonce
// allocation) can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
