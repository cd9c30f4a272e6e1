package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "turnstile/internal/errors"
)

// Config holds the Redis connection and lock timing settings
type Config struct {
	Addr          string
	Password      string
	DB            int
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

// RedisLock is a lease-based mutual-exclusion lock backed by a single Redis
// instance. Every acquisition is exclusive; the lease expires on its own so a
// crashed holder cannot block an event forever. The ownership token prevents
// a caller from releasing a lock it lost to lease expiry.
type RedisLock struct {
	client        *redis.Client
	waitTimeout   time.Duration
	retryInterval time.Duration
}

// releaseScript deletes the key only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// NewRedisLock connects to Redis and verifies the connection
func NewRedisLock(cfg Config) (*RedisLock, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLock{
		client:        rdb,
		waitTimeout:   cfg.WaitTimeout,
		retryInterval: cfg.RetryInterval,
	}, nil
}

// Acquire polls SET NX PX until it wins the key or the wait timeout passes.
// On timeout it returns ErrLockContention so the caller can retry with
// backoff instead of overselling.
func (l *RedisLock) Acquire(ctx context.Context, key string, lease time.Duration) (string, error) {
	token := uuid.New().String()
	deadline := time.Now().Add(l.waitTimeout)

	for {
		ok, err := l.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return "", fmt.Errorf("lock acquire: %w", err)
		}
		if ok {
			return token, nil
		}

		if time.Now().After(deadline) {
			return "", apperrors.ErrLockContention
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}

// Release removes the lock if the token still matches. A stale or mismatched
// token is ignored: the lease already reclaimed the lock for someone else.
func (l *RedisLock) Release(ctx context.Context, key, token string) error {
	err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lock release: %w", err)
	}
	return nil
}

// Close shuts down the underlying Redis client
func (l *RedisLock) Close() error {
	return l.client.Close()
}
