package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

const defaultRetryInterval = 25 * time.Millisecond

// Deletes the key only if it still holds our token, so an expired lock taken over by
// another writer is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lock shared by every API instance: SET NX PX plus a token-checked delete.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		retry:  defaultRetryInterval,
		logger: logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%s: %w", key, model.ErrLockTimeout)
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%s: %w", key, model.ErrLockTimeout)
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	// the caller's context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("Failed to release slot lock",
			zap.String("key", key),
			zap.Error(err))
	}
}
