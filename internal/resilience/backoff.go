package resilience

import (
	"math"
	"time"
)

// Backoff returns the delay before retry number attempt (0 is the first
// retry): base doubled attempt times, capped at max. A max of zero or less
// leaves the delay uncapped.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}

	d := base
	for i := 0; i < attempt; i++ {
		if max > 0 && d >= max {
			return max
		}
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
