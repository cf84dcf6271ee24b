package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idempotency:"

	defaultIdempotencyTTL = 24 * time.Hour
	defaultLockTTL        = 10 * time.Second
	lockRetryInterval     = 25 * time.Millisecond
)

// releaseLockScript deletes the lock only if it still belongs to the caller.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type RedisAdapter struct {
	client         *redis.Client
	idempotencyTTL time.Duration
	lockTTL        time.Duration
}

type RedisOption func(*RedisAdapter)

func WithIdempotencyTTL(ttl time.Duration) RedisOption {
	return func(r *RedisAdapter) { r.idempotencyTTL = ttl }
}

// WithLockTTL bounds how long a crashed holder can block a request.
func WithLockTTL(ttl time.Duration) RedisOption {
	return func(r *RedisAdapter) { r.lockTTL = ttl }
}

func NewRedisAdapter(client *redis.Client, opts ...RedisOption) *RedisAdapter {
	r := &RedisAdapter{
		client:         client,
		idempotencyTTL: defaultIdempotencyTTL,
		lockTTL:        defaultLockTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// Lock spins on SET NX until it owns key or ctx is done. The lock expires
// after the configured TTL even if unlock is never called.
func (r *RedisAdapter) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		// A fresh context lets a cancelled caller still free the key. If the
		// release fails the TTL frees it.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseLockScript.Run(releaseCtx, r.client, []string{key}, token).Err()
	}, nil
}
