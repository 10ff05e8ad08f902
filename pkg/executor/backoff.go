package executor

import "time"

const (
	publishBackoffBase = 200 * time.Millisecond
	publishBackoffMax  = 5 * time.Second
)

// publishBackoff returns the delay before publish retry attempt n
// (0-indexed): base * 2^n, capped at publishBackoffMax.
func publishBackoff(attempt int) time.Duration {
	if attempt < 0 {
		return publishBackoffBase
	}
	if attempt > 30 {
		return publishBackoffMax
	}
	d := publishBackoffBase * time.Duration(1<<attempt)
	if d > publishBackoffMax {
		return publishBackoffMax
	}
	return d
}
