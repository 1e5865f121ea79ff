// Package testutil provides shared test helpers for databases and frame stores.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/reviewink/internal/feedback"
	"github.com/starford/reviewink/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *feedback.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "reviewink-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := feedback.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFrameStore creates a temporary frame cache directory.
func TestFrameStore(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
