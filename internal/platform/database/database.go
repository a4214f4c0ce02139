package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"medisim/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DB is a database/sql handle that knows its dialect. Repositories write
// postgres-style placeholders and pass queries through Rebind.
type DB struct {
	*sql.DB
	Driver string
	dsn    string
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites $N placeholders to ?N for sqlite. Postgres queries are
// returned unchanged.
func (db *DB) Rebind(query string) string {
	if db.Driver != DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}

// Open connects to the configured store, retrying while the server comes up.
// The memory driver returns (nil, nil).
func Open(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (*DB, error) {
	switch cfg.Driver {
	case DriverMemory:
		return nil, nil
	case DriverPostgres:
		return openWithRetry(ctx, DriverPostgres, cfg.DSN, cfg, logger)
	case DriverSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating sqlite directory: %w", err)
			}
		}
		dsn := cfg.DSN + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		db, err := openWithRetry(ctx, DriverSQLite, dsn, cfg, logger)
		if err != nil {
			return nil, err
		}
		// a single writer keeps every UPDATE strictly serialized
		db.SetMaxOpenConns(1)
		db.dsn = cfg.DSN
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openWithRetry(ctx context.Context, driver, dsn string, cfg config.StorageConfig, logger logrus.FieldLogger) (*DB, error) {
	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	for i := 0; i < retries; i++ {
		sqlDB, err = sql.Open(driver, dsn)
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err == nil {
			break
		}
		if sqlDB != nil {
			sqlDB.Close()
		}
		logger.WithFields(logrus.Fields{
			"driver":  driver,
			"attempt": i + 1,
			"of":      retries,
		}).WithError(err).Warn("Waiting for database")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	logger.WithField("driver", driver).Info("Connected to database")
	return &DB{DB: sqlDB, Driver: driver, dsn: dsn}, nil
}

// migrationURL returns the golang-migrate database URL for this handle.
func (db *DB) migrationURL() string {
	if db.Driver == DriverSQLite {
		return "sqlite://" + strings.TrimPrefix(db.dsn, "file:")
	}
	return db.dsn
}
