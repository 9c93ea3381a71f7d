// Package storage defines the note-tree file-system abstraction.
package storage

import (
	"io/fs"
	"time"

	"github.com/starford/zettl/internal/models"
)

// WalkFunc is called for every entry below the root. rel is slash-separated
// and relative to the root; the root itself is reported as ".".
type WalkFunc func(rel string, d fs.DirEntry) error

// Provider is the interface for note tree operations. All paths are
// relative to the base directory.
type Provider interface {
	// Root returns the absolute base directory.
	Root() string
	// ReadDir lists the immediate children of dir.
	ReadDir(dir string) ([]fs.DirEntry, error)
	// Stat returns metadata of path, following symlinks.
	Stat(path string) (fs.FileInfo, error)
	// Walk visits the whole tree under the root without any filtering.
	Walk(fn WalkFunc) error
	// List returns metadata for every note file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Overwrite creates or truncates path in place.
	Overwrite(path string, content []byte) error
	// Write atomically replaces path.
	Write(path string, content []byte) error
	// Chtimes sets the access and modification times of path. A zero
	// time leaves that field unchanged.
	Chtimes(path string, atime, mtime time.Time) error
	// MkdirAll creates dir and its parents.
	MkdirAll(dir string) error
	// Exists reports whether path exists.
	Exists(path string) bool
}
