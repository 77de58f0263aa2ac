package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// CounterStore implements ports.CounterStore with INCR and a key expiry of
// one window, so counters are shared by every instance using the server.
type CounterStore struct {
	client backend.UniversalClient
	prefix string
}

// NewCounterStore creates a counter store on an existing client.
func NewCounterStore(client backend.UniversalClient, opts ...Option) *CounterStore {
	o := apply(opts)
	return &CounterStore{
		client: client,
		prefix: o.prefix + "rate:",
	}
}

// Incr implements ports.CounterStore.
func (c *CounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, c.prefix+key)
	pipe.PExpire(ctx, c.prefix+key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	return incr.Val(), nil
}
