package core

import "time"

// TimeProvider abstracts the clock so codecs that fall back to the
// current time (MT940 statements without a usable value date) stay
// deterministic under test.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}
