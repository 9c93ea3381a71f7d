// Package query reads notes and derived documents for the API and MCP
// surfaces and lets them trigger rebuilds.
package query

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/zettl/internal/apperr"
	"github.com/starford/zettl/internal/frontmatter"
	"github.com/starford/zettl/internal/ident"
	"github.com/starford/zettl/internal/linkdb"
	"github.com/starford/zettl/internal/linkgraph"
	"github.com/starford/zettl/internal/models"
	"github.com/starford/zettl/internal/rebuild"
	"github.com/starford/zettl/internal/storage"
)

// Rebuilder runs the builders.
type Rebuilder interface {
	Run() (*rebuild.Report, error)
}

// Service answers queries from the note store, the graph document and
// the link database.
type Service struct {
	store     storage.Provider
	db        linkdb.Store
	rebuilder Rebuilder
}

// NewService creates a new API service.
func NewService(store storage.Provider, db linkdb.Store, rebuilder Rebuilder) *Service {
	return &Service{store: store, db: db, rebuilder: rebuilder}
}

// NoteDetail is the response payload for a single note.
type NoteDetail struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Author    string             `json:"author,omitempty"`
	Created   string             `json:"created,omitempty"`
	Body      string             `json:"body"`
	Links     []string           `json:"links"`
	Backlinks []linkdb.LinkCount `json:"backlinks"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetNote reads the note with identifier id.
func (s *Service) GetNote(id string) (*NoteDetail, error) {
	rel, err := notePath(id)
	if err != nil {
		return nil, err
	}
	data, err := s.read(rel)
	if err != nil {
		return nil, err
	}
	info, err := s.store.Stat(rel)
	if err != nil {
		return nil, err
	}
	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.Backlinks(id)
	if err != nil {
		return nil, err
	}
	links := linkgraph.ExtractLinks(data)
	if links == nil {
		links = []string{}
	}
	d := &NoteDetail{
		ID:        id,
		Title:     fm.Title,
		Author:    fm.Author,
		Body:      string(body),
		Links:     links,
		Backlinks: bl,
		UpdatedAt: info.ModTime(),
	}
	if !time.Time(fm.Created).IsZero() {
		d.Created = fm.Created.String()
	}
	if d.Title == "" {
		d.Title = ident.TitleCase(path.Base(id))
	}
	return d, nil
}

// ListNotes returns every note except indexes, optionally restricted to the
// subtree under dir.
func (s *Service) ListNotes(dir string) ([]NoteListItem, error) {
	metas, err := s.store.List(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("list %s: %w", dir, apperr.ErrNotFound)
		}
		return nil, err
	}
	items := make([]NoteListItem, len(metas))
	for i, m := range metas {
		items[i] = NoteListItem{ID: m.ID, UpdatedAt: m.UpdatedAt}
	}
	return items, nil
}

// Index returns the index document of dir ("" for the base directory).
func (s *Service) Index(dir string) ([]byte, error) {
	dir = strings.Trim(dir, "/")
	if hasDotDot(dir) {
		return nil, fmt.Errorf("index %s: %w", dir, apperr.ErrNotFound)
	}
	return s.read(ident.IndexOf(dir) + ident.NoteExt)
}

// Graph returns the last written graph document.
func (s *Service) Graph() (models.Graph, error) {
	data, err := s.read(linkgraph.DocumentName)
	if err != nil {
		return models.Graph{}, err
	}
	return linkgraph.Decode(data)
}

// Backlinks returns the notes linking to id. Without a link database it is
// answered from the graph document.
func (s *Service) Backlinks(id string) ([]linkdb.LinkCount, error) {
	if s.db != nil {
		return s.db.Backlinks(id)
	}
	return s.fromDocument(func(l models.Link) (string, bool) { return l.Source, l.Target == id })
}

// Outlinks returns the notes id links to.
func (s *Service) Outlinks(id string) ([]linkdb.LinkCount, error) {
	if s.db != nil {
		return s.db.Outlinks(id)
	}
	return s.fromDocument(func(l models.Link) (string, bool) { return l.Target, l.Source == id })
}

// Stats returns the link database summary.
func (s *Service) Stats() (linkdb.Stats, error) {
	if s.db == nil {
		return linkdb.Stats{}, fmt.Errorf("stats: %w", apperr.ErrNotFound)
	}
	return s.db.Stats()
}

// Rebuild runs the builders.
func (s *Service) Rebuild() (*rebuild.Report, error) {
	return s.rebuilder.Run()
}

func (s *Service) fromDocument(match func(models.Link) (string, bool)) ([]linkdb.LinkCount, error) {
	g, err := s.Graph()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []linkdb.LinkCount{}, nil
		}
		return nil, err
	}
	counts := map[string]int{}
	var order []string
	for _, l := range g.Links {
		other, ok := match(l)
		if !ok {
			continue
		}
		if counts[other] == 0 {
			order = append(order, other)
		}
		counts[other]++
	}
	out := make([]linkdb.LinkCount, 0, len(order))
	for _, id := range order {
		out = append(out, linkdb.LinkCount{ID: id, Count: counts[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Service) read(rel string) ([]byte, error) {
	data, err := s.store.Read(rel)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", rel, apperr.ErrNotFound)
	}
	return data, err
}

func notePath(id string) (string, error) {
	id = strings.Trim(id, "/")
	if id == "" || hasDotDot(id) {
		return "", fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
	}
	return id + ident.NoteExt, nil
}

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
