// Package testutil provides shared test fixtures: sources, snapshots and
// a temporary key-value store.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/lumen/internal/kv"
	"github.com/starford/lumen/internal/models"
)

// Source returns a built-in source accepting common image extensions and
// excluding the .github folder.
func Source(id string) models.Source {
	return models.Source{
		ID:                 id,
		DisplayName:        "Test Source",
		Owner:              "acme",
		Repo:               "pictures",
		Branch:             "main",
		TreeRef:            "main",
		ExcludedFolders:    []string{".github"},
		AcceptedExtensions: []string{".png", ".jpg"},
		BuiltIn:            true,
	}
}

// Snapshot returns a snapshot whose entries are files at the given paths,
// all with size 0.
func Snapshot(sourceID string, paths ...string) *models.RepositorySnapshot {
	entries := make([]models.TreeEntry, len(paths))
	for i, p := range paths {
		entries[i] = models.TreeEntry{Path: p, Kind: models.KindFile}
	}
	return &models.RepositorySnapshot{SourceID: sourceID, Ref: "main", Entries: entries}
}

// TestDB creates a temporary SQLite key-value store that is automatically
// cleaned up.
func TestDB(t *testing.T) *kv.DB {
	t.Helper()
	f, err := os.CreateTemp("", "lumen-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := kv.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
