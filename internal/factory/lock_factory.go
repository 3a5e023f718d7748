package factory

import (
	"fmt"

	"github.com/mikey/mailbox-warmup/internal/adapters/lock"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockFactory creates the cycle lock
type LockFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLockFactory creates a new lock factory
func NewLockFactory(cfg *config.Config, logger *zap.Logger) *LockFactory {
	return &LockFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCycleLock returns the configured lock, or nil to rely on the runner's own guard
func (f *LockFactory) CreateCycleLock() (core.CycleLock, error) {
	lockCfg, err := f.cfg.GetLock()
	if err != nil {
		return nil, err
	}

	switch lockCfg.Type {
	case "local":
		return lock.NewLocalLock(), nil
	case "redis":
		if lockCfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for the redis lock")
		}
		client := redis.NewClient(&redis.Options{Addr: lockCfg.RedisAddr})
		f.logger.Info("Using redis cycle lock",
			zap.String("address", lockCfg.RedisAddr),
			zap.String("key", lockCfg.Key))
		return lock.NewRedisLock(client, lockCfg.Key, lockCfg.TTL, f.logger), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported lock type: %s", lockCfg.Type)
	}
}
