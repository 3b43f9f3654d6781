package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// Migrate brings the SQLite database at dbPath up to the newest embedded
// schema version. It opens its own short-lived connection so the repository
// pool never hands out a half-migrated schema; a database that is already
// current is not an error.
func Migrate(dbPath string) error {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer conn.Close()

	dbDriver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare sqlite migration driver: %w", err)
	}

	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded schema files: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply schema migrations: %w", err)
	}
	return nil
}
