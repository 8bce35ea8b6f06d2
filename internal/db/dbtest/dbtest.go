// Package dbtest provides throwaway in-memory SQLite stores for tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookreview/internal/config"
	"bookreview/internal/db"
)

// New opens a migrated in-memory database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	storage := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := db.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Storage: storage}, nil)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	// One connection keeps the shared in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return gdb
}
