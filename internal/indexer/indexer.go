// Package indexer regenerates the per-directory _index.md navigation documents.
package indexer

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/zettl/internal/apperr"
	"github.com/starford/zettl/internal/frontmatter"
	"github.com/starford/zettl/internal/ident"
	"github.com/starford/zettl/internal/storage"
)

// ConfigDir is never listed nor descended into, at any depth.
const ConfigDir = ".zettl"

// Kind tells notes and subdirectory indexes apart.
type Kind int

const (
	ChildNote Kind = iota
	ChildIndex
)

// Item is one entry of an index document.
type Item struct {
	Kind    Kind
	ID      string
	Path    string // relative path the modification time was read from
	ModTime time.Time
}

// Builder writes index documents for a whole note tree.
type Builder struct {
	store  storage.Provider
	author string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-directory debug records.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithClock overrides the source of the created timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New creates a Builder over store. author goes into every front matter.
func New(store storage.Provider, author string, opts ...Option) *Builder {
	b := &Builder{
		store:  store,
		author: author,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build regenerates _index.md in the base directory and every
// subdirectory below it. A directory is always written before any of its
// children; the first error stops the build.
func (b *Builder) Build() error {
	pending := []string{""}
	written := 0
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		subdirs, err := b.writeIndex(dir)
		if err != nil {
			return err
		}
		written++
		for i := len(subdirs) - 1; i >= 0; i-- {
			pending = append(pending, subdirs[i])
		}
	}
	b.logger.Debug("indexes written", slog.Int("directories", written))
	return nil
}

func (b *Builder) writeIndex(dir string) ([]string, error) {
	items, err := Items(b.store, dir)
	if err != nil {
		return nil, err
	}

	name, err := b.dirName(dir)
	if err != nil {
		return nil, err
	}
	title := ident.TitleCase(name) + " Index"

	doc, err := Render(frontmatter.New(title, b.author, b.now()), items)
	if err != nil {
		return nil, err
	}

	target := path.Join(dir, ident.IndexName+ident.NoteExt)
	// Creating the index adds a directory entry, which would bump dir's
	// mtime after its parent already listed it. Put the old mtime back.
	var before fs.FileInfo
	if !b.store.Exists(target) {
		if before, err = b.store.Stat(dir); err != nil {
			return nil, apperr.Wrap(apperr.ErrFilesystem, "stat", dir, err)
		}
	}
	if err := b.store.Overwrite(target, doc); err != nil {
		return nil, apperr.Wrap(apperr.ErrFilesystem, "write index", target, err)
	}
	if before != nil {
		if err := b.store.Chtimes(dir, time.Time{}, before.ModTime()); err != nil {
			return nil, apperr.Wrap(apperr.ErrFilesystem, "restore mtime", dir, err)
		}
	}
	b.logger.Debug("index written", slog.String("path", target), slog.Int("items", len(items)))

	var subdirs []string
	for _, it := range items {
		if it.Kind == ChildIndex {
			subdirs = append(subdirs, it.Path)
		}
	}
	return subdirs, nil
}

func (b *Builder) dirName(dir string) (string, error) {
	if dir != "" {
		return path.Base(dir), nil
	}
	name := filepath.Base(b.store.Root())
	if name == string(filepath.Separator) || name == "." || name == "" {
		return "", apperr.Wrap(apperr.ErrMissingMetadata, "derive title", b.store.Root(),
			fmt.Errorf("directory has no base name"))
	}
	return name, nil
}

// Items lists the entries of dir, newest first. Identifiers are relative
// to the store root, not to dir.
func Items(store storage.Provider, dir string) ([]Item, error) {
	entries, err := store.ReadDir(dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrFilesystem, "list directory", dir, err)
	}

	var items []Item
	for _, e := range entries {
		if e.Name() == ConfigDir {
			continue
		}
		rel := path.Join(dir, e.Name())
		if ident.IsHidden(rel) {
			continue
		}
		info, err := store.Stat(rel)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrFilesystem, "stat", rel, err)
		}
		switch {
		case info.IsDir() && e.Type()&fs.ModeSymlink != 0:
			// Linked directories may point back up the tree.
			continue
		case info.IsDir():
			items = append(items, Item{Kind: ChildIndex, ID: ident.IndexOf(rel), Path: rel, ModTime: info.ModTime()})
		case info.Mode().IsRegular() && ident.IsNote(e.Name()) && !ident.IsIndexFile(e.Name()):
			items = append(items, Item{Kind: ChildNote, ID: ident.StripExt(rel), Path: rel, ModTime: info.ModTime()})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ModTime.After(items[j].ModTime)
	})
	return items, nil
}

// Render composes an index document from its front matter and items.
func Render(fm frontmatter.FrontMatter, items []Item) ([]byte, error) {
	head, err := frontmatter.Render(fm)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(head)
	fmt.Fprintf(&buf, "\n# %s\n\n", fm.Title)
	for _, it := range items {
		if strings.HasPrefix(it.ID, ".") {
			continue
		}
		fmt.Fprintf(&buf, "- [[%s]]\n", it.ID)
	}
	return buf.Bytes(), nil
}

// BuildIndexes regenerates every index document under base.
func BuildIndexes(base, author string, opts ...Option) error {
	store, err := storage.NewFS(base)
	if err != nil {
		return apperr.Wrap(apperr.ErrFilesystem, "open tree", base, err)
	}
	return New(store, author, opts...).Build()
}
