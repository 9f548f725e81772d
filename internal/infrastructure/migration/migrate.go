// Package migration applies the SQL schema under migrations/ with
// golang-migrate. The schema is small (stock entries, departure
// records, operators), so the surface here is deliberately narrow:
// apply, step back, inspect, and repair a dirty version.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator drives schema migrations against an open database
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New wraps an open postgres connection in a Migrator reading SQL
// files from migrationsPath
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migration source %s: %w", migrationsPath, err)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return m.logCurrent("schema migrated")
}

// Down rolls back the most recently applied migration. Rolling back the
// whole schema is done one step at a time, on purpose.
func (m *Migrator) Down() error {
	err := m.migrate.Steps(-1)
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return m.logCurrent("migration rolled back")
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	err := m.migrate.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply %d migration steps: %w", n, err)
	}
	return m.logCurrent("migration steps applied")
}

// Version reports the current schema version. A fresh database reports
// version zero.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded schema version without running any SQL.
// This is the repair tool for a migration that died halfway and left
// the version dirty.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("forcing schema version", zap.Int("schema_version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force schema version %d: %w", version, err)
	}
	return nil
}

// Close releases the migration source and database handles
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (m *Migrator) logCurrent(msg string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info(msg,
		zap.Uint("schema_version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
