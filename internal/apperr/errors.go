// Package apperr defines the error kinds shared by the builders and the note service.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrFilesystem marks read, write, listing and metadata failures.
	ErrFilesystem = errors.New("filesystem error")
	// ErrMissingMetadata marks a path component that cannot be derived,
	// e.g. the base name of the filesystem root.
	ErrMissingMetadata = errors.New("missing metadata")
	// ErrSerialization marks front matter or graph encoding failures.
	ErrSerialization = errors.New("serialization error")
)

// Wrap annotates err with a kind, the failed operation and the path it
// touched. Both the kind and err stay reachable through errors.Is.
func Wrap(kind error, op, path string, err error) error {
	if err == nil {
		return nil
	}
	if path == "" {
		return fmt.Errorf("%w: %s: %w", kind, op, err)
	}
	return fmt.Errorf("%w: %s %s: %w", kind, op, path, err)
}
