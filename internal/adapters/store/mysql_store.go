package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// NewMySQLStore connects to MySQL and optionally migrates the schema.
// The DSN must set parseTime=true.
func NewMySQLStore(dsn string, migrate bool, logger *zap.Logger) (*SQLStore, error) {
	if migrate {
		if err := migrateDSN(DialectMySQL, dsn, logger); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(DialectMySQL.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	logger.Info("Connected to MySQL store")
	return NewSQLStore(db, DialectMySQL, logger), nil
}
