// Package testutil provides shared test helpers for building note trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/zettl/internal/storage"
)

// Epoch is a fixed point in the past that test mtimes are offset from.
var Epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)

// TestTree creates a temporary base directory named name with a storage
// provider rooted at it.
func TestTree(t *testing.T, name string) (string, *storage.FS) {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// WriteFile writes content at rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// SetAge sets the modification time of rel to Epoch plus offset.
func SetAge(t *testing.T, root, rel string, offset time.Duration) {
	t.Helper()
	ts := Epoch.Add(offset)
	if err := os.Chtimes(filepath.Join(root, filepath.FromSlash(rel)), ts, ts); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content at rel under root.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// FixedClock returns a clock that always reports ts.
func FixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
