package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreSetGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "otp:login-2fa:a@b.io", "123456", time.Minute))

	val, err := store.Get(ctx, "otp:login-2fa:a@b.io")
	require.NoError(t, err)
	assert.Equal(t, "123456", val)

	require.NoError(t, store.Set(ctx, "otp:login-2fa:a@b.io", "654321", time.Minute))
	val, err = store.Get(ctx, "otp:login-2fa:a@b.io")
	require.NoError(t, err)
	assert.Equal(t, "654321", val)
}

func TestRedisStoreMiss(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", 5*time.Second))
	mr.FastForward(4 * time.Second)
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreRejectsNonPositiveTTL(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Error(t, store.Set(context.Background(), "k", "v", 0))
}

func TestRedisStoreDeleteIsSingleWinner(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Delete(ctx, "k")
			if err == nil && ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
	ok, err := store.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreHealthCheck(t *testing.T) {
	store, mr := newTestStore(t)

	assert.NoError(t, store.HealthCheck(context.Background()))
	mr.Close()
	assert.Error(t, store.HealthCheck(context.Background()))
}
