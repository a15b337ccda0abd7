package database

import (
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "adwatch_test.db")
	if err := InitDB(dbPath); err != nil {
		t.Fatalf("initializing test database: %v", err)
	}
	t.Cleanup(func() {
		DB.Close()
	})
}
