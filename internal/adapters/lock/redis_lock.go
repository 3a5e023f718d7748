package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long a crashed holder keeps other instances out
const DefaultTTL = 30 * time.Minute

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLock lets several engine instances share one cycle at a time using SET NX with a TTL.
// Each acquisition stores a fresh token so a holder never deletes a lock it lost to expiry.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	token string
}

// NewRedisLock creates a lock on key
func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration, logger *zap.Logger) *RedisLock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLock{
		client: client,
		key:    fmt.Sprintf("lock:%s", key),
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire tries to take the lock without waiting
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		l.logger.Debug("Cycle lock held elsewhere", zap.String("key", l.key))
		return false, nil
	}

	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return true, nil
}

// Release deletes the lock only if this instance still owns it
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()

	if token == "" {
		return nil
	}

	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if deleted == 0 {
		l.logger.Warn("Cycle lock expired before release", zap.String("key", l.key))
	}
	return nil
}

// Close closes the underlying client
func (l *RedisLock) Close() error {
	return l.client.Close()
}
