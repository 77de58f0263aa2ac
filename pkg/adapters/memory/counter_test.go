package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStore_Incr(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCounterStore(time.Minute)

	for want := int64(1); want <= 3; want++ {
		n, err := store.Incr(ctx, "evaluate:10.0.0.1:42", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := store.Incr(ctx, "evaluate:10.0.0.2:42", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "keys are independent")
}

func TestCounterStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCounterStore(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Incr(ctx, "k", time.Minute)
		}()
	}
	wg.Wait()

	n, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(51), n)
}

func TestCounterStore_FlushesAtMaxKeys(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCounterStore(time.Minute, memory.WithMaxKeys(3))

	for _, k := range []string{"a", "b", "c"} {
		_, err := store.Incr(ctx, k, time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())

	n, err := store.Incr(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counters are reset once the bound is reached")
	assert.Equal(t, 1, store.Len())
}

func TestCounterStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCounterStore(time.Millisecond)

	_, err := store.Incr(ctx, "k", 5*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}
