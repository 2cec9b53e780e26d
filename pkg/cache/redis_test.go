package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client, ""), mr
}

func TestSetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type trip struct {
		TripID string `json:"trip_id"`
		Price  int    `json:"price"`
	}
	require.NoError(t, c.Set(ctx, "trip:t1", trip{TripID: "t1", Price: 899}, time.Minute))

	var got trip
	require.NoError(t, c.Get(ctx, "trip:t1", &got))
	assert.Equal(t, trip{TripID: "t1", Price: 899}, got)

	require.NoError(t, c.Delete(ctx, "trip:t1"))
	assert.ErrorIs(t, c.Get(ctx, "trip:t1", &got), ErrCacheMiss)
}

func TestAcquireLockIsExclusive(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	token, ok, err := c.AcquireLock(ctx, "lock:BK-000001", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = c.AcquireLock(ctx, "lock:BK-000001", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "lock:BK-000001", token))

	_, ok, err = c.AcquireLock(ctx, "lock:BK-000001", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseLockKeepsForeignLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.AcquireLock(ctx, "lock:BK-000002", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "lock:BK-000002", "someone-else"))
	assert.True(t, mr.Exists("lock:BK-000002"))
}

func TestLockExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.AcquireLock(ctx, "lock:BK-000003", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = c.AcquireLock(ctx, "lock:BK-000003", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCacheFromClient(client, "staging:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "trip:t1", map[string]string{"trip_id": "t1"}, time.Minute))
	assert.True(t, mr.Exists("staging:trip:t1"))
	assert.False(t, mr.Exists("trip:t1"))

	token, ok, err := c.AcquireLock(ctx, "lock:BK-000004", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("staging:lock:BK-000004"))
	require.NoError(t, c.ReleaseLock(ctx, "lock:BK-000004", token))
	assert.False(t, mr.Exists("staging:lock:BK-000004"))

	require.NoError(t, c.Delete(ctx, "trip:t1"))
	assert.False(t, mr.Exists("staging:trip:t1"))
}

func TestNewRedisCacheFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), Options{URL: "redis://" + mr.Addr() + "/0", PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.NoError(t, c.Ping(context.Background()))

	_, err = NewRedisCache(context.Background(), Options{URL: "://bad"})
	assert.Error(t, err)
}
