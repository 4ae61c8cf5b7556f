package test_utils

import (
	"context"
	"database/sql"
	"testing"

	"github.com/klokku/expenses/internal/config"
	"github.com/klokku/expenses/internal/database"
)

// SetupSqliteDB opens an isolated in-memory SQLite database with all migrations
// applied. It is closed when the test finishes.
func SetupSqliteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSqlite(context.Background(), config.Database{Driver: config.DriverSqlite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.MigrateSqlite(db); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return db
}
