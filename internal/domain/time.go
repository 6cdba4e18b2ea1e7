package domain

import "time"

// CurrentTimeProvider abstracts the system clock so usecases stay
// deterministic under test.
type CurrentTimeProvider interface {
	// Now returns the current time.
	Now() time.Time
}
