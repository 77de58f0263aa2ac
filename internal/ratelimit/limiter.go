// Package ratelimit implements per-client fixed-window request limiting.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Limiter admits at most Limit requests per client within each window.
// Windows are aligned to multiples of the window length since the Unix epoch,
// so every counter resets at the same instant for all clients.
type Limiter struct {
	name   string
	limit  int64
	window time.Duration
	store  ports.CounterStore
	clock  ports.Clock
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(c ports.Clock) Option {
	return func(l *Limiter) {
		l.clock = c
	}
}

// DefaultWindow replaces a window that is zero or negative.
const DefaultWindow = time.Minute

// New creates a limiter named name (e.g. "evaluate") admitting limit requests
// per window and counting in store. A non-positive window falls back to
// DefaultWindow.
func New(name string, limit int, window time.Duration, store ports.CounterStore, opts ...Option) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		name:   name,
		limit:  int64(limit),
		window: window,
		store:  store,
		clock:  ports.SystemClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the limiter family.
func (l *Limiter) Name() string { return l.name }

// Allow records one request for key and returns a *domain.RateLimitError when
// the client exceeded its quota for the current window. Counter store failures
// are returned as is.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	now := l.clock.Now()
	idx := now.UnixNano() / int64(l.window)
	counterKey := fmt.Sprintf("%s:%s:%d", l.name, key, idx)

	n, err := l.store.Incr(ctx, counterKey, l.window)
	if err != nil {
		return fmt.Errorf("rate limit %s: %w", l.name, err)
	}
	if n > l.limit {
		reset := time.Unix(0, (idx+1)*int64(l.window))
		return &domain.RateLimitError{
			Limiter:    l.name,
			Key:        key,
			RetryAfter: reset.Sub(now),
		}
	}
	return nil
}
