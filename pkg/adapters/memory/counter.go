package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultMaxKeys bounds the number of live counters before the store is flushed.
const DefaultMaxKeys = 10000

// CounterStore implements ports.CounterStore on an expiring in-process cache.
// Counters expire two windows after creation. When more than maxKeys counters
// are alive the whole cache is flushed, which at worst forgives some clients
// part of one window.
type CounterStore struct {
	mu      sync.Mutex
	cache   *cache.Cache
	maxKeys int
}

// CounterOption configures a CounterStore.
type CounterOption func(*CounterStore)

// WithMaxKeys sets the live-counter bound.
func WithMaxKeys(n int) CounterOption {
	return func(s *CounterStore) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

// NewCounterStore creates an in-memory counter store. cleanup is the interval
// at which expired counters are evicted.
func NewCounterStore(cleanup time.Duration, opts ...CounterOption) *CounterStore {
	s := &CounterStore{
		cache:   cache.New(cache.NoExpiration, cleanup),
		maxKeys: DefaultMaxKeys,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Incr implements ports.CounterStore.
func (s *CounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.ItemCount() >= s.maxKeys {
		s.cache.Flush()
	}

	if err := s.cache.Add(key, int64(1), 2*window); err == nil {
		return 1, nil
	}
	return s.cache.IncrementInt64(key, 1)
}

// Len returns the number of live counters.
func (s *CounterStore) Len() int {
	return s.cache.ItemCount()
}
