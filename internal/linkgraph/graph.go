// Package linkgraph extracts [[wikilinks]] from every note and writes the
// resulting directed graph as a JSON document.
package linkgraph

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"regexp"

	"github.com/starford/zettl/internal/apperr"
	"github.com/starford/zettl/internal/ident"
	"github.com/starford/zettl/internal/models"
	"github.com/starford/zettl/internal/storage"
)

// DocumentName is the graph document written at the root of the tree.
const DocumentName = ".graph.json"

var wikilinkRe = regexp.MustCompile(`\[\[([^\]\[]+)\]\]`)

// BrokenLink is a reference whose target matches no note identifier.
type BrokenLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Result is the outcome of one graph build.
type Result struct {
	Graph  models.Graph
	Broken []BrokenLink
}

// Builder scans a note tree and writes the link graph document.
type Builder struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a Builder over store. Broken links are reported as warnings
// on logger.
func New(store storage.Provider, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, logger: logger}
}

// Build walks the whole tree, resolves every link against the set of note
// identifiers, and replaces the graph document. An unreadable note aborts
// the build and leaves the previous document in place.
func (b *Builder) Build() (*Result, error) {
	files, err := b.collect()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(files))
	universe := make(map[string]struct{}, len(files))
	res := &Result{Graph: models.Graph{
		Nodes: make([]models.Node, 0, len(files)),
		Links: []models.Link{},
	}}
	for i, rel := range files {
		ids[i] = ident.StripExt(rel)
		universe[ids[i]] = struct{}{}
		res.Graph.Nodes = append(res.Graph.Nodes, models.Node{ID: ids[i]})
	}

	for i, rel := range files {
		data, err := b.store.Read(rel)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrFilesystem, "read note", rel, err)
		}
		for _, target := range ExtractLinks(data) {
			if _, ok := universe[target]; ok {
				res.Graph.Links = append(res.Graph.Links, models.Link{Source: ids[i], Target: target})
				continue
			}
			res.Broken = append(res.Broken, BrokenLink{Source: ids[i], Target: target})
			b.logger.Warn("broken link",
				slog.String("link", "[["+target+"]]"),
				slog.String("source", ids[i]))
		}
	}

	doc, err := Encode(res.Graph)
	if err != nil {
		return nil, err
	}
	if err := b.store.Write(DocumentName, doc); err != nil {
		return nil, apperr.Wrap(apperr.ErrFilesystem, "write graph", DocumentName, err)
	}

	b.logger.Debug("graph written",
		slog.Int("nodes", len(res.Graph.Nodes)),
		slog.Int("links", len(res.Graph.Links)),
		slog.Int("broken", len(res.Broken)))
	return res, nil
}

// BuildGraph regenerates the graph document of the tree at base.
func BuildGraph(base string, logger *slog.Logger) (*Result, error) {
	store, err := storage.NewFS(base)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrFilesystem, "open tree", base, err)
	}
	return New(store, logger).Build()
}

// collect returns every note file in the tree, hidden paths and index
// documents included.
func (b *Builder) collect() ([]string, error) {
	var files []string
	err := b.store.Walk(func(rel string, d fs.DirEntry) error {
		if !d.IsDir() && ident.IsNote(d.Name()) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrFilesystem, "walk tree", b.store.Root(), err)
	}
	return files, nil
}

// ExtractLinks returns the capture of every non-overlapping [[...]] in
// data, in order of appearance and without deduplication.
func ExtractLinks(data []byte) []string {
	matches := wikilinkRe.FindAllSubmatch(data, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, string(m[1]))
	}
	return out
}

// Encode serializes g to the graph document format.
func Encode(g models.Graph) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrSerialization, "encode graph", "", err)
	}
	return data, nil
}

// Decode parses a graph document.
func Decode(data []byte) (models.Graph, error) {
	var g models.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return g, apperr.Wrap(apperr.ErrSerialization, "decode graph", "", err)
	}
	return g, nil
}
