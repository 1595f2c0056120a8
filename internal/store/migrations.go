package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperengineering/forge/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending migrations from the embedded migrations package.
// A provider is used instead of goose's package-level state because several
// module databases may be opened concurrently.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
