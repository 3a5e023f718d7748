package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// NewPostgresStore connects to PostgreSQL through pgx and optionally migrates the schema
func NewPostgresStore(dsn string, migrate bool, logger *zap.Logger) (*SQLStore, error) {
	if migrate {
		if err := migrateDSN(DialectPostgres, dsn, logger); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(DialectPostgres.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	logger.Info("Connected to PostgreSQL store")
	return NewSQLStore(db, DialectPostgres, logger), nil
}
