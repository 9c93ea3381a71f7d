// Package watcher triggers full rebuilds when the note tree changes.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/zettl/internal/ident"
	"github.com/starford/zettl/internal/indexer"
	"github.com/starford/zettl/internal/linkgraph"
	"github.com/starford/zettl/internal/rebuild"
)

// DefaultDebounce is the quiet period after the last event before a rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Rebuilder runs the builders.
type Rebuilder interface {
	Run() (*rebuild.Report, error)
}

// Callback is called after each watcher-driven rebuild.
type Callback func(rep *rebuild.Report, err error)

// Watch observes root recursively and runs r once events have been quiet
// for debounce. Files written by the builders themselves are ignored so a
// rebuild never triggers another one. It returns when ctx is cancelled.
func Watch(ctx context.Context, root string, r Rebuilder, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger.Info("watcher: started", slog.String("root", root))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			rep, runErr := r.Run()
			if runErr != nil {
				logger.Error("watcher: rebuild failed", slog.String("error", runErr.Error()))
			}
			if cb != nil {
				cb(rep, runErr)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignored(root, ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// ignored reports whether a change to p cannot affect the derived documents
// or was produced by a build.
func ignored(root, p string) bool {
	name := filepath.Base(p)
	switch {
	case name == ident.IndexName+ident.NoteExt,
		name == linkgraph.DocumentName,
		strings.HasPrefix(name, ".zettl-tmp-"):
		return true
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return true
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first == indexer.ConfigDir
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == indexer.ConfigDir {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
