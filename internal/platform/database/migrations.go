package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// Migrate applies every pending migration under dir/<driver>.
func Migrate(db *DB, dir string, logger logrus.FieldLogger) error {
	if db == nil {
		return nil
	}

	source := fmt.Sprintf("file://%s", filepath.ToSlash(filepath.Join(dir, db.Driver)))
	m, err := migrate.New(source, db.migrationURL())
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No pending migrations to run")
			return nil
		}
		return fmt.Errorf("running migrations up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.WithError(err).Warn("Could not get migration version after up")
		return nil
	}
	logger.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("Migrations applied successfully")
	return nil
}
