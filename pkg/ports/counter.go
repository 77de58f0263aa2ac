package ports

import (
	"context"
	"time"
)

// CounterStore holds fixed-window counters keyed by limiter, client and window.
type CounterStore interface {
	// Incr increments the counter for key and returns its new value.
	// The counter must not outlive the window by more than one window length.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Clock abstracts the time source.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
