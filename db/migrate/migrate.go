// Package migrate brings the alarm schema up to date.
//
// Migrations are embedded in the binary at compile time, so the pipeline
// always carries the schema it needs without external file dependencies.
//
// # Usage
//
// Call Run() before opening the application connection pool:
//
//	if err := migrate.Run(cfg.DatabaseURL, logger); err != nil {
//	    log.Fatal("migration failed:", err)
//	}
//
// # Migration Files
//
// Migrations are SQL files in the migrations directory using
// golang-migrate's naming scheme:
//
//	NNNNNN_descriptive_name.up.sql
//	NNNNNN_descriptive_name.down.sql
//
// Applied versions are tracked in the schema_migrations table managed by
// golang-migrate, so each migration runs exactly once.
package migrate

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gomigrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run executes all pending database migrations.
//
// It opens its own short-lived database connection from the URL, so it
// should be called before the application pool is created.
func Run(databaseURL string, logger *slog.Logger) error {
	logger.Info("checking database migrations")

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}

	m, err := gomigrate.NewWithSourceInstance("iofs", src, driverURL(databaseURL))
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if !errors.Is(err, gomigrate.ErrNoChange) {
			return fmt.Errorf("applying migrations: %w", err)
		}
		version, _, _ := m.Version()
		logger.Info("database schema is up to date", "version", version)
		return nil
	}

	version, _, _ := m.Version()
	logger.Info("migrations complete", "version", version)
	return nil
}

// Rollback reverts the most recently applied migration. This is
// primarily for development and testing.
func Rollback(databaseURL string, logger *slog.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}

	m, err := gomigrate.NewWithSourceInstance("iofs", src, driverURL(databaseURL))
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("reverting migration: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("migration reverted", "version", version)
	return nil
}

// driverURL rewrites a postgres:// connection URL onto the scheme of
// golang-migrate's pgx/v5 driver. Other URLs pass through unchanged.
func driverURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}
