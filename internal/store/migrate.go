package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/matheus3301/wppdesk/internal/store/migrations"
)

// ErrDirtySchema means a previous migration stopped halfway. The cache is
// disposable; deleting cache.db recovers.
var ErrDirtySchema = errors.New("cache schema is dirty")

// MigrateResult reports the schema version before and after Migrate.
type MigrateResult struct {
	From    uint
	Version uint
	Changed bool
}

// Migrate brings the cache schema to the latest embedded version.
func (db *DB) Migrate() (*MigrateResult, error) {
	m, err := db.migrator()
	if err != nil {
		return nil, err
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return nil, fmt.Errorf("read schema version: %w", err)
	case dirty:
		return nil, fmt.Errorf("%w at version %d", ErrDirtySchema, from)
	}

	res := &MigrateResult{From: from, Version: from}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("migrate cache from %d: %w", from, err)
	}
	if v, _, err := m.Version(); err == nil {
		res.Version = v
	}
	res.Changed = res.Version != from
	return res, nil
}

func (db *DB) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	drv, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}
	return m, nil
}
