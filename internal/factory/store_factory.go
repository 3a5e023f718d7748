package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/mailbox-warmup/internal/adapters/store"
	"github.com/mikey/mailbox-warmup/internal/config"
	"go.uber.org/zap"
)

// StoreFactory creates persistence backends based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a store based on the configuration
func (f *StoreFactory) CreateStore() (store.Store, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "memory":
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		if store.IsInMemorySQLite(storeCfg.SQLitePath) {
			return nil, store.ErrInMemorySQLite
		}
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(storeCfg.SQLitePath, storeCfg.Migrate, f.logger)
	case "mysql":
		return store.NewMySQLStore(storeCfg.MySQLDSN, storeCfg.Migrate, f.logger)
	case "postgres":
		return store.NewPostgresStore(storeCfg.PostgresDSN, storeCfg.Migrate, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}

// Migrate applies pending schema migrations for the configured SQL store and
// returns the resulting version
func (f *StoreFactory) Migrate() (uint, error) {
	storeCfg := f.cfg.GetStore()

	var dialect store.Dialect
	var dsn string
	switch storeCfg.Type {
	case "sqlite":
		if store.IsInMemorySQLite(storeCfg.SQLitePath) {
			return 0, store.ErrInMemorySQLite
		}
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return 0, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		dialect, dsn = store.DialectSQLite, store.SQLiteDSN(storeCfg.SQLitePath)
	case "mysql":
		dialect, dsn = store.DialectMySQL, storeCfg.MySQLDSN
	case "postgres":
		dialect, dsn = store.DialectPostgres, storeCfg.PostgresDSN
	default:
		return 0, fmt.Errorf("store type %s has no schema to migrate", storeCfg.Type)
	}

	version, dirty, err := store.MigrateDSN(dialect, dsn, f.logger)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
