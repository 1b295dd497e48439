package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateStore_CountsWithinWindow(t *testing.T) {
	store := NewRateStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	count, reset, err := store.Increment(context.Background(), "user_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(time.Minute), reset)

	now = now.Add(30 * time.Second)
	count, reset, err = store.Increment(context.Background(), "user_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, now.Add(30*time.Second), reset)
}

func TestRateStore_WindowResets(t *testing.T) {
	store := NewRateStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, _, err := store.Increment(context.Background(), "user_1", time.Minute)
		require.NoError(t, err)
	}

	now = now.Add(time.Minute)
	count, reset, err := store.Increment(context.Background(), "user_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(time.Minute), reset)
}

func TestRateStore_KeysAreIndependent(t *testing.T) {
	store := NewRateStore()

	_, _, _ = store.Increment(context.Background(), "user_1", time.Minute)
	_, _, _ = store.Increment(context.Background(), "user_1", time.Minute)
	count, _, err := store.Increment(context.Background(), "ip_10.0.0.1", time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, store.ItemCount())
}

func TestRateStore_ConcurrentIncrements(t *testing.T) {
	store := NewRateStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Increment(context.Background(), "user_1", time.Minute)
		}()
	}
	wg.Wait()

	count, _, err := store.Increment(context.Background(), "user_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 51, count)
}
