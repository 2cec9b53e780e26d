package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"seekeradv/pkg/cache"
	"seekeradv/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSerialized(t *testing.T, locker BookingLocker) {
	t.Helper()
	var active, maxActive, runs int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "BK-000001", func(ctx context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				atomic.AddInt32(&runs, 1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, int32(20), runs)
}

func TestLocalLockerSerializes(t *testing.T) {
	assertSerialized(t, NewLocalLocker())
}

func TestLocalLockerForgetsIdleKeys(t *testing.T) {
	locker := NewLocalLocker().(*keyedMutex)
	require.NoError(t, locker.WithLock(context.Background(), "BK-000001", func(ctx context.Context) error { return nil }))
	assert.Empty(t, locker.locks)
}

func newRedisLockStore(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, cache.NewRedisCacheFromClient(client, "")
}

func TestRedisLockerSerializes(t *testing.T) {
	_, store := newRedisLockStore(t)
	assertSerialized(t, NewRedisLocker(store, 5*time.Second, 5*time.Second, logger.NewNop()))
}

func TestRedisLockerReleasesAfterUse(t *testing.T) {
	mr, store := newRedisLockStore(t)
	locker := NewRedisLocker(store, 5*time.Second, time.Second, logger.NewNop())

	require.NoError(t, locker.WithLock(context.Background(), "BK-000001", func(ctx context.Context) error {
		assert.True(t, mr.Exists("lock:booking:BK-000001"))
		return nil
	}))
	assert.False(t, mr.Exists("lock:booking:BK-000001"))
}

func TestRedisLockerTimesOut(t *testing.T) {
	mr, store := newRedisLockStore(t)
	require.NoError(t, mr.Set("lock:booking:BK-000001", "someone-else"))

	locker := NewRedisLocker(store, 5*time.Second, 100*time.Millisecond, logger.NewNop())
	called := false
	err := locker.WithLock(context.Background(), "BK-000001", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, called)

	val, err := mr.Get("lock:booking:BK-000001")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

func TestRedisLockerAcquiresAfterExpiry(t *testing.T) {
	mr, store := newRedisLockStore(t)
	require.NoError(t, mr.Set("lock:booking:BK-000001", "stale"))
	mr.SetTTL("lock:booking:BK-000001", time.Second)

	locker := NewRedisLocker(store, 5*time.Second, 2*time.Second, logger.NewNop())
	done := make(chan error, 1)
	go func() {
		done <- locker.WithLock(context.Background(), "BK-000001", func(ctx context.Context) error { return nil })
	}()

	time.Sleep(50 * time.Millisecond)
	mr.FastForward(2 * time.Second)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("lock was not acquired after expiry")
	}
	waitFor(t, func() bool { return !mr.Exists("lock:booking:BK-000001") })
}
