package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationLogger forwards golang-migrate output to zap
type migrationLogger struct {
	logger *zap.Logger
}

func (l *migrationLogger) Printf(format string, v ...interface{}) {
	l.logger.Sugar().Infof(format, v...)
}

func (l *migrationLogger) Verbose() bool {
	return false
}

// Migrate applies all pending schema migrations for the dialect using the given connection.
// The connection is closed when migration finishes, so callers pass a dedicated pool.
func Migrate(db *sql.DB, dialect Dialect, logger *zap.Logger) error {
	m, err := newMigrator(db, dialect, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("Schema is up to date",
		zap.String("dialect", dialect.Name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// MigrateDSN applies pending migrations through a dedicated pool and returns the
// resulting schema version
func MigrateDSN(dialect Dialect, dsn string, logger *zap.Logger) (uint, bool, error) {
	if err := migrateDSN(dialect, dsn, logger); err != nil {
		return 0, false, err
	}
	db, err := openMigrationPool(dialect, dsn)
	if err != nil {
		return 0, false, err
	}
	return MigrationVersion(db, dialect, logger)
}

// migrateDSN runs migrations on a dedicated pool which is closed afterwards
func migrateDSN(dialect Dialect, dsn string, logger *zap.Logger) error {
	db, err := openMigrationPool(dialect, dsn)
	if err != nil {
		return err
	}
	return Migrate(db, dialect, logger)
}

func openMigrationPool(dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database for migration: %w", dialect.Name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database for migration: %w", dialect.Name, err)
	}
	return db, nil
}

// MigrationVersion reports the applied schema version. It closes db like Migrate.
func MigrationVersion(db *sql.DB, dialect Dialect, logger *zap.Logger) (uint, bool, error) {
	m, err := newMigrator(db, dialect, logger)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

func newMigrator(db *sql.DB, dialect Dialect, logger *zap.Logger) (*migrate.Migrate, error) {
	migrations, err := fs.Sub(migrationsFS, "migrations/"+dialect.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations subdirectory: %w", err)
	}

	sourceDriver, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source driver: %w", err)
	}

	var dbDriver database.Driver
	switch dialect.Name {
	case DialectSQLite.Name:
		dbDriver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case DialectMySQL.Name:
		dbDriver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case DialectPostgres.Name:
		dbDriver, err = pgxv5.WithInstance(db, &pgxv5.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration dialect: %s", dialect.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, dialect.Name, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrationLogger{logger: logger}
	return m, nil
}
