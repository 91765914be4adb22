package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// RunMigrations applies every pending migration from sourceURL, e.g. file://migrations.
func RunMigrations(sourceURL, databaseURL string, logger zerolog.Logger) error {
	return withMigrator(sourceURL, databaseURL, func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("schema up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return logVersion(m, logger, "schema migrated")
	})
}

// RunMigrationsDown rolls back exactly one migration.
func RunMigrationsDown(sourceURL, databaseURL string, logger zerolog.Logger) error {
	return withMigrator(sourceURL, databaseURL, func(m *migrate.Migrate) error {
		if err := m.Steps(-1); err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		return logVersion(m, logger, "schema rolled back")
	})
}

func withMigrator(sourceURL, databaseURL string, fn func(*migrate.Migrate) error) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}

func logVersion(m *migrate.Migrate, logger zerolog.Logger, msg string) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info().Msg(msg + ", no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg(msg)
	return nil
}
