package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/zettl/internal/editor"
	"github.com/starford/zettl/internal/indexer"
	"github.com/starford/zettl/internal/linkdb"
	"github.com/starford/zettl/internal/linkgraph"
	"github.com/starford/zettl/internal/notes"
	"github.com/starford/zettl/internal/query"
	"github.com/starford/zettl/internal/rebuild"
	"github.com/starford/zettl/internal/storage"
)

// Components is the wired set of services over one base directory.
type Components struct {
	Store    *storage.FS
	DB       *linkdb.DB // nil when the mirror is disabled
	Pipeline *rebuild.Pipeline
	Notes    *notes.Service
	Query    *query.Service
}

// Assemble opens the note tree at base and wires the builders enabled in
// cfg. The link database is opened only when withDB is set and the graph
// builder is enabled. launcher may be nil.
func Assemble(base string, cfg *Config, withDB bool, launcher editor.Launcher, logger *slog.Logger) (*Components, error) {
	store, err := storage.NewFS(base)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	c := &Components{Store: store}

	opts := []rebuild.Option{rebuild.WithLogger(logger)}
	if cfg.Indexes {
		opts = append(opts, rebuild.WithIndexer(indexer.New(store, cfg.Author, indexer.WithLogger(logger))))
	}
	if cfg.Graph {
		opts = append(opts, rebuild.WithGraph(linkgraph.New(store, logger)))
		if withDB {
			dbPath := cfg.SQLite.Resolve(store.Root())
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
			db, err := linkdb.Open(dbPath)
			if err != nil {
				return nil, fmt.Errorf("init link db: %w", err)
			}
			c.DB = db
			opts = append(opts, rebuild.WithMirror(db))
		}
	}
	c.Pipeline = rebuild.New(opts...)
	c.Notes = notes.NewService(store, cfg.Author, launcher, c.Pipeline, notes.WithLogger(logger))

	var db linkdb.Store
	if c.DB != nil {
		db = c.DB
	}
	c.Query = query.NewService(store, db, c.Pipeline)
	return c, nil
}

// Close releases the link database.
func (c *Components) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
