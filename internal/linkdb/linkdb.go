package linkdb

import (
	"time"

	"github.com/starford/zettl/internal/models"
)

// Store defines the graph mirror operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type Store interface {
	ReplaceGraph(g models.Graph, broken int, builtAt time.Time) error
	Graph() (models.Graph, error)
	Backlinks(target string) ([]LinkCount, error)
	Outlinks(source string) ([]LinkCount, error)
	Stats() (Stats, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
