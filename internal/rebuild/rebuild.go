// Package rebuild runs the index and graph builders as one sequential pass.
package rebuild

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/zettl/internal/indexer"
	"github.com/starford/zettl/internal/linkdb"
	"github.com/starford/zettl/internal/linkgraph"
)

// Report summarises one pipeline run.
type Report struct {
	Indexes  bool                   `json:"indexes"`
	Graph    bool                   `json:"graph"`
	Nodes    int                    `json:"nodes"`
	Links    int                    `json:"links"`
	Broken   []linkgraph.BrokenLink `json:"broken"`
	Duration time.Duration          `json:"duration"`
}

// Pipeline owns both builders and an optional SQLite mirror. Runs are
// serialized so that watcher, HTTP and MCP triggers never overlap.
type Pipeline struct {
	mu      sync.Mutex
	indexer *indexer.Builder
	graph   *linkgraph.Builder
	db      linkdb.Store
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIndexer enables index regeneration.
func WithIndexer(b *indexer.Builder) Option {
	return func(p *Pipeline) { p.indexer = b }
}

// WithGraph enables graph regeneration.
func WithGraph(b *linkgraph.Builder) Option {
	return func(p *Pipeline) { p.graph = b }
}

// WithMirror stores every built graph in db.
func WithMirror(db linkdb.Store) Option {
	return func(p *Pipeline) { p.db = db }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline. Builders left unset are skipped.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run regenerates indexes, then the graph. The graph step does not depend on
// the indexes but runs after them so the graph sees the fresh _index files.
func (p *Pipeline) Run() (*Report, error) {
	return p.run(p.indexer != nil, p.graph != nil)
}

// RunIndexes regenerates only the index documents.
func (p *Pipeline) RunIndexes() (*Report, error) {
	if p.indexer == nil {
		return nil, errors.New("rebuild: index builder disabled")
	}
	return p.run(true, false)
}

// RunGraph regenerates only the graph document and its mirror.
func (p *Pipeline) RunGraph() (*Report, error) {
	if p.graph == nil {
		return nil, errors.New("rebuild: graph builder disabled")
	}
	return p.run(false, true)
}

func (p *Pipeline) run(indexes, graph bool) (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	rep := &Report{Broken: []linkgraph.BrokenLink{}}

	if indexes {
		if err := p.indexer.Build(); err != nil {
			return nil, err
		}
		rep.Indexes = true
	}

	if graph {
		res, err := p.graph.Build()
		if err != nil {
			return nil, err
		}
		rep.Graph = true
		rep.Nodes = len(res.Graph.Nodes)
		rep.Links = len(res.Graph.Links)
		if res.Broken != nil {
			rep.Broken = res.Broken
		}
		if p.db != nil {
			if err := p.db.ReplaceGraph(res.Graph, len(res.Broken), start); err != nil {
				// The document on disk is authoritative; the mirror catches up next run.
				p.logger.Warn("graph mirror update failed", slog.String("error", err.Error()))
			}
		}
	}

	rep.Duration = p.now().Sub(start)
	p.logger.Info("rebuild finished",
		slog.Bool("indexes", rep.Indexes),
		slog.Bool("graph", rep.Graph),
		slog.Int("nodes", rep.Nodes),
		slog.Int("links", rep.Links),
		slog.Int("broken", len(rep.Broken)),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}
