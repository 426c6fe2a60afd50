package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when the lock is held elsewhere after all retries.
var ErrLocked = errors.New("platform/cache: resource locked")

// Locker serialises critical sections across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// RedisLocker implements Locker with redislock.
type RedisLocker struct {
	client  *redislock.Client
	retries int
	backoff time.Duration
}

// NewRedisLocker builds a locker that retries a few times before giving up.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client:  redislock.New(client),
		retries: 20,
		backoff: 50 * time.Millisecond,
	}
}

// WithLock runs fn while holding key. The lock is released when fn returns.
func (l *RedisLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s", ErrLocked, key)
	}
	if err != nil {
		return fmt.Errorf("platform/cache: obtain %s: %w", key, err)
	}
	defer func() {
		// Use a fresh context so a cancelled request still releases.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = lock.Release(releaseCtx)
	}()
	return fn(ctx)
}

// LocalLocker is an in-process Locker for tests and single-node setups.
type LocalLocker struct {
	sem chan struct{}
}

// NewLocalLocker returns a LocalLocker. All keys share one mutex.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

// WithLock implements Locker.
func (l *LocalLocker) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(context.Context) error) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()
	return fn(ctx)
}
