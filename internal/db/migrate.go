// Migration runner using goose (github.com/pressly/goose/v3).
//
// Two migration sets exist (see internal/db/migrations): the directory set
// runs once against the shared store at startup; the tenant set runs against
// every tenant database, either when a handle is provisioned or via the
// admin fan-out in cmd/invox-admin.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/db/migrations"
)

// MigrateDirectory applies all pending directory-store migrations.
func MigrateDirectory(ctx context.Context, connStr string, log *logrus.Logger) error {
	fsys, err := fs.Sub(migrations.DirectoryFS, "directory")
	if err != nil {
		return fmt.Errorf("resolving directory migrations: %w", err)
	}

	return run(ctx, connStr, log, fsys, "directory")
}

// MigrateTenant applies all pending tenant-store migrations to one tenant
// database identified by its DSN.
func MigrateTenant(ctx context.Context, connStr string, log *logrus.Logger) error {
	fsys, err := fs.Sub(migrations.TenantFS, "tenant")
	if err != nil {
		return fmt.Errorf("resolving tenant migrations: %w", err)
	}

	return run(ctx, connStr, log, fsys, "tenant")
}

// run applies all pending migrations from fsys against connStr.
// goose requires a *sql.DB, so the pgx stdlib driver is used here.
func run(ctx context.Context, connStr string, log *logrus.Logger, fsys fs.FS, set string) error {
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying %s migrations: %w", set, err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}

		log.WithFields(logrus.Fields{
			"set":      set,
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.WithField("set", set).Debug("all migrations already applied")
	}

	return nil
}
