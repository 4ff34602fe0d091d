// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-tracker/pkg/config"
	"github.com/angelmondragon/inventory-tracker/pkg/db"
	"github.com/angelmondragon/inventory-tracker/pkg/migrate"
)

// NewSQLite returns a client over a private in-memory database with the
// bundled migrations applied and foreign keys enforced.
func NewSQLite(t testing.TB) *db.Client {
	t.Helper()
	return open(t, fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()))
}

// NewSQLiteFile returns a client over a temp-file database opened with the
// same plain DSN an operator would configure. Locking options come from
// db.New, so concurrent tests see what the service sees.
func NewSQLiteFile(t testing.TB) *db.Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.db")
	return open(t, fmt.Sprintf("file:%s?_foreign_keys=1", path))
}

func open(t testing.TB, dsn string) *db.Client {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := migrate.Up(ctx, sqlDB, "sqlite"); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}
