package kv

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migration directories per driver
const (
	sqliteMigrations   = "migrations/sqlite"
	postgresMigrations = "migrations/postgres"
)

func migrationSource(dir string) (source.Driver, error) {
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	return src, nil
}

// applyMigrations runs every pending up migration. An up-to-date schema is
// not an error.
func applyMigrations(m *migrate.Migrate) error {
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// pgxMigrationURL rewrites a postgres connection URL to the scheme of the
// golang-migrate pgx v5 driver.
func pgxMigrationURL(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		u.Scheme = "pgx5"
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}
}

func runPostgresMigrations(databaseURL string) error {
	src, err := migrationSource(postgresMigrations)
	if err != nil {
		return err
	}

	target, err := pgxMigrationURL(databaseURL)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, target)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	return applyMigrations(m)
}
