package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"
)

var ErrLockTimeout = errors.New("timed out waiting for booking lock")

// BookingLocker serializes every read-modify-write of one booking.
type BookingLocker interface {
	WithLock(ctx context.Context, bookingID string, fn func(ctx context.Context) error) error
}

// LockStore is the Redis lease API the distributed locker needs.
type LockStore interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

type redisLocker struct {
	store    LockStore
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
	logger   *logger.Logger
}

// NewRedisLocker returns a locker backed by SET NX PX leases. Acquisition is
// retried until wait elapses.
func NewRedisLocker(store LockStore, ttl, wait time.Duration, log *logger.Logger) BookingLocker {
	return &redisLocker{
		store:    store,
		ttl:      ttl,
		wait:     wait,
		interval: 25 * time.Millisecond,
		logger:   log,
	}
}

func (l *redisLocker) WithLock(ctx context.Context, bookingID string, fn func(ctx context.Context) error) error {
	key := utils.CacheBookingLockPrefix + bookingID
	deadline := time.Now().Add(l.wait)

	for {
		token, ok, err := l.store.AcquireLock(ctx, key, l.ttl)
		if err != nil {
			return err
		}
		if ok {
			defer func() {
				// Release must not be skipped because the request context ended.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.store.ReleaseLock(releaseCtx, key, token); err != nil {
					l.logger.WithError(err).WithBookingID(bookingID).Warn("Failed to release booking lock")
				}
			}()
			return fn(ctx)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, bookingID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.interval):
		}
	}
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// NewLocalLocker returns an in-process locker for single-instance
// deployments without Redis.
func NewLocalLocker() BookingLocker {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) WithLock(ctx context.Context, bookingID string, fn func(ctx context.Context) error) error {
	k.mu.Lock()
	m, ok := k.locks[bookingID]
	if !ok {
		m = &refMutex{}
		k.locks[bookingID] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()
	defer func() {
		m.mu.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, bookingID)
		}
		k.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
