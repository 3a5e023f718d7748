package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteDSN builds a connection string with foreign keys enforced
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// ErrInMemorySQLite is returned for in-memory SQLite paths. Migrations run on their
// own pool, so such a database would never see the schema; use the memory store instead.
var ErrInMemorySQLite = errors.New("in-memory SQLite databases are not supported, use store type \"memory\"")

// IsInMemorySQLite reports whether path names a per-connection in-memory database
func IsInMemorySQLite(path string) bool {
	p := strings.TrimPrefix(strings.TrimSpace(path), "file:")
	return p == "" || strings.HasPrefix(p, ":memory:") || strings.Contains(p, "mode=memory")
}

// NewSQLiteStore opens the SQLite database at path and optionally migrates it
func NewSQLiteStore(path string, migrate bool, logger *zap.Logger) (*SQLStore, error) {
	if IsInMemorySQLite(path) {
		return nil, ErrInMemorySQLite
	}
	dsn := SQLiteDSN(path)

	if migrate {
		if err := migrateDSN(DialectSQLite, dsn, logger); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(DialectSQLite.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY between cycle writes
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	logger.Info("Opened SQLite store", zap.String("path", path))
	return NewSQLStore(db, DialectSQLite, logger), nil
}
