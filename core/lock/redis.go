package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLocker serializes work across processes with bsm/redislock.
// Held leases are refreshed at half the TTL until released.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker wraps an existing go-redis client.
func NewRedisLocker(rdb goredis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, logger: logger}
}

// TryAcquire obtains key without retrying.
func (r *RedisLocker) TryAcquire(ctx context.Context, key string) (Lease, error) {
	held, err := r.client.Obtain(ctx, key, r.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}

	lease := &redisLease{lock: held, stop: make(chan struct{}), done: make(chan struct{})}
	go lease.keepAlive(r.ttl, r.logger.With(zap.String("lock_key", key)))
	return lease, nil
}

type redisLease struct {
	lock *redislock.Lock
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (l *redisLease) keepAlive(ttl time.Duration, logger *zap.Logger) {
	defer close(l.done)

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			if err := l.lock.Refresh(context.Background(), ttl, nil); err != nil {
				logger.Warn("Failed to refresh lock", zap.Error(err))
				return
			}
		}
	}
}

func (l *redisLease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		<-l.done
		err = l.lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			err = nil
		}
	})
	return err
}
