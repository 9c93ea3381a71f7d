// Package notes implements the note store operations: scaffolding the base
// directory, creating notes and fleeting notes, and listing them.
package notes

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/zettl/internal/apperr"
	"github.com/starford/zettl/internal/editor"
	"github.com/starford/zettl/internal/frontmatter"
	"github.com/starford/zettl/internal/ident"
	"github.com/starford/zettl/internal/rebuild"
	"github.com/starford/zettl/internal/storage"
)

// Layout of a base directory.
const (
	ConfigDir  = ".zettl"
	ConfigFile = "config.yml"
	FleetsDir  = "fleets"
	NotesDir   = "notes"
)

const (
	fleetNameLayout  = "2006-01-02"
	fleetTitleLayout = "Monday, 02 January 2006"
)

// Rebuilder regenerates the derived documents.
type Rebuilder interface {
	Run() (*rebuild.Report, error)
}

// Service coordinates the note store, the editor and the builders.
type Service struct {
	store    storage.Provider
	author   string
	launcher editor.Launcher
	rebuild  Rebuilder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time used for new notes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a note service. launcher and rebuilder may be nil.
func NewService(store storage.Provider, author string, launcher editor.Launcher, rebuilder Rebuilder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		author:   author,
		launcher: launcher,
		rebuild:  rebuilder,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConfigPath returns the default config file location relative to the base.
func ConfigPath() string {
	return path.Join(ConfigDir, ConfigFile)
}

// Init scaffolds the base directory and hands the absolute config file path
// to saveConfig. It fails if the base directory was already initialized.
func (s *Service) Init(_ context.Context, saveConfig func(filename string) error) error {
	if s.store.Exists(ConfigDir) {
		return fmt.Errorf("init %s: %w", s.store.Root(), apperr.ErrAlreadyExists)
	}
	for _, dir := range []string{ConfigDir, FleetsDir, NotesDir} {
		if err := s.store.MkdirAll(dir); err != nil {
			return apperr.Wrap(apperr.ErrFilesystem, "create directory", dir, err)
		}
	}
	if err := saveConfig(filepath.Join(s.store.Root(), filepath.FromSlash(ConfigPath()))); err != nil {
		return apperr.Wrap(apperr.ErrFilesystem, "write config", ConfigPath(), err)
	}
	s.logger.Info("initialized", slog.String("base", s.store.Root()))
	return s.refresh()
}

// Fleet opens the fleeting note called name, which must exist. With an
// empty name it opens today's fleeting note, creating it first if needed.
// It returns the note's path relative to the base.
func (s *Service) Fleet(ctx context.Context, name string) (string, error) {
	var rel string
	if name != "" {
		rel = path.Join(FleetsDir, name+ident.NoteExt)
		if !s.store.Exists(rel) {
			return "", fmt.Errorf("fleeting note %s: %w", name, apperr.ErrNotFound)
		}
	} else {
		now := s.now()
		rel = path.Join(FleetsDir, now.Format(fleetNameLayout)+ident.NoteExt)
		if err := s.createIfMissing(rel, now.Format(fleetTitleLayout), now); err != nil {
			return "", err
		}
	}
	s.open(ctx, rel)
	return rel, s.refresh()
}

// Note opens notes/<name>.md, creating it with a skeleton when absent.
// name may contain slashes to place the note in a subdirectory.
func (s *Service) Note(ctx context.Context, name string) (string, error) {
	name = strings.Trim(path.Clean("/"+name), "/")
	if name == "" {
		return "", apperr.Wrap(apperr.ErrMissingMetadata, "derive note title", name, fmt.Errorf("empty note name"))
	}
	rel := path.Join(NotesDir, name+ident.NoteExt)
	if err := s.createIfMissing(rel, ident.TitleCase(path.Base(name)), s.now()); err != nil {
		return "", err
	}
	s.open(ctx, rel)
	return rel, s.refresh()
}

// List returns the identifiers of all notes, or of all fleeting notes,
// relative to their section directory and sorted.
func (s *Service) List(_ context.Context, fleet bool) ([]string, error) {
	dir := NotesDir
	if fleet {
		dir = FleetsDir
	}
	metas, err := s.store.List(dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrFilesystem, "list notes", dir, err)
	}
	out := make([]string, 0, len(metas))
	for _, m := range metas {
		out = append(out, strings.TrimPrefix(m.ID, dir+"/"))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) createIfMissing(rel, title string, now time.Time) error {
	if s.store.Exists(rel) {
		return nil
	}
	doc, err := frontmatter.Skeleton(frontmatter.New(title, s.author, now))
	if err != nil {
		return err
	}
	if err := s.store.Write(rel, doc); err != nil {
		return apperr.Wrap(apperr.ErrFilesystem, "create note", rel, err)
	}
	s.logger.Debug("note created", slog.String("path", rel))
	return nil
}

// open hands the note to the editor. The editor's outcome is reported but
// never changes the result of the operation.
func (s *Service) open(ctx context.Context, rel string) {
	if s.launcher == nil {
		return
	}
	file := filepath.Join(s.store.Root(), filepath.FromSlash(rel))
	if err := s.launcher.Open(ctx, file); err != nil {
		s.logger.Warn("editor failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
}

func (s *Service) refresh() error {
	if s.rebuild == nil {
		return nil
	}
	if _, err := s.rebuild.Run(); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	return nil
}
