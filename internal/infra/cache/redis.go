package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lottery-relay/internal/domain"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock реализует domain.RunLock через SETNX с TTL.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ domain.RunLock = (*RedisLock)(nil)

// NewRedisLock создаёт блокировку запусков.
func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLock{client: client, ttl: ttl, prefix: "lottery-relay:lock:"}
}

// Do выполняет fn, если ключ ещё не занят. Блокировка снимается только своим токеном.
func (l *RedisLock) Do(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key
	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: acquire %s: %v", domain.ErrLockUnavailable, key, err)
	}
	if !ok {
		return false, nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
	}()
	return true, fn(ctx)
}

// NoopLock всегда выполняет fn. Используется без REDIS_ADDR.
type NoopLock struct{}

var _ domain.RunLock = NoopLock{}

func (NoopLock) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) (bool, error) {
	return true, fn(ctx)
}
