package core

import (
	"path/filepath"
	"testing"
	"time"

	"adwatch/database"
)

// fakeClock returns a fixed instant, so next-fire math is deterministic.
type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time {
	return c.now
}

func setupTestDB(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "adwatch_test.db")
	if err := database.InitDB(dbPath); err != nil {
		t.Fatalf("initializing test database: %v", err)
	}
	t.Cleanup(func() {
		database.DB.Close()
	})
}
