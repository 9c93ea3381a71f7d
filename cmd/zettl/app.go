package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/starford/zettl/internal"
	"github.com/starford/zettl/internal/editor"
	"github.com/starford/zettl/internal/mcpserver"
	"github.com/starford/zettl/internal/notes"
	"github.com/starford/zettl/internal/rebuild"
	"github.com/starford/zettl/internal/watcher"
	pkgconfig "github.com/starford/zettl/pkg/config"
)

const defaultBaseDir = "~/zettel"

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "zettl",
		Usage:   "Zettelkasten note tree with generated indexes and a link graph",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "basedir",
				Aliases: []string{"b"},
				Usage:   "Base directory of the note tree",
				Value:   defaultBaseDir,
				Sources: cli.EnvVars("ZETTL_DIRECTORY"),
			},
			&cli.StringFlag{
				Name:        "config-file",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "<basedir>/.zettl/config.yml",
				Sources:     cli.EnvVars("ZETTL_CFG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Initialize the base directory",
				Action: runInit,
			},
			{
				Name:  "fleet",
				Usage: "Open today's fleeting note, creating it if needed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "open",
						Aliases: []string{"o"},
						Usage:   "Open an existing fleeting note by name (YYYY-MM-DD)",
					},
				},
				Action: runFleet,
			},
			{
				Name:      "note",
				Usage:     "Create or open notes/<name>.md",
				ArgsUsage: "NAME",
				Action:    runNote,
			},
			{
				Name:  "list",
				Usage: "List notes",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "fleet",
						Aliases: []string{"f"},
						Usage:   "List fleeting notes instead",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runList(ctx, cmd, out)
				},
			},
			{
				Name:   "index",
				Usage:  "Regenerate the _index.md of every directory",
				Action: runIndex,
			},
			{
				Name:   "graph",
				Usage:  "Regenerate the .graph.json link graph",
				Action: runGraph,
			},
			{
				Name:      "backlinks",
				Usage:     "Show notes linking to a note",
				ArgsUsage: "ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runBacklinks(ctx, cmd, out)
				},
			},
			{
				Name:   "watch",
				Usage:  "Rebuild indexes and graph whenever the tree changes",
				Action: runWatch,
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and watch the tree",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
		},
	}
}

// session is the state shared by the note commands.
type session struct {
	base   string
	cfg    *internal.Config
	logger *slog.Logger
}

func openSession(cmd *cli.Command) (*session, error) {
	base, err := resolveBaseDir(cmd.String("basedir"))
	if err != nil {
		return nil, err
	}
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config-file"), defaultConfigPath(base), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &session{base: base, cfg: cfg, logger: cliLogger(cfg.App.LogLevel)}, nil
}

func (s *session) assemble(withDB bool, launcher editor.Launcher) (*internal.Components, error) {
	return internal.Assemble(s.base, s.cfg, withDB, launcher, s.logger)
}

func (s *session) launcher() editor.Launcher {
	return editor.NewExec(s.cfg.EditorCmd, s.cfg.EditorArgs, s.base)
}

// resolveBaseDir expands a leading ~, creates the directory if needed and
// makes it absolute.
func resolveBaseDir(dir string) (string, error) {
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create base directory: %w", err)
	}
	return filepath.Abs(dir)
}

func defaultConfigPath(base string) string {
	return filepath.Join(base, filepath.FromSlash(notes.ConfigPath()))
}

// cliLogger writes diagnostics to stderr so stdout stays usable for output.
func cliLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	base, err := resolveBaseDir(cmd.String("basedir"))
	if err != nil {
		return err
	}
	cfg := internal.NewDefaultConfig()
	s := &session{base: base, cfg: cfg, logger: cliLogger(cfg.App.LogLevel)}
	// The link database lives in .zettl, which init itself has to create.
	c, err := s.assemble(false, nil)
	if err != nil {
		return err
	}
	return c.Notes.Init(ctx, func(filename string) error {
		return pkgconfig.Save(filename, cfg)
	})
}

func runFleet(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	c, err := s.assemble(true, s.launcher())
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Notes.Fleet(ctx, cmd.String("open"))
	return err
}

func runNote(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("note: NAME is required")
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	c, err := s.assemble(true, s.launcher())
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Notes.Note(ctx, name)
	return err
}

func runList(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	c, err := s.assemble(false, nil)
	if err != nil {
		return err
	}
	ids, err := c.Notes.List(ctx, cmd.Bool("fleet"))
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

func runIndex(_ context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	s.cfg.Indexes = true
	c, err := s.assemble(false, nil)
	if err != nil {
		return err
	}
	_, err = c.Pipeline.RunIndexes()
	return err
}

// runGraph works on any directory of notes: without a config file it uses
// the defaults and skips the link database.
func runGraph(_ context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	withDB := true
	if errors.Is(err, fs.ErrNotExist) {
		base, baseErr := resolveBaseDir(cmd.String("basedir"))
		if baseErr != nil {
			return baseErr
		}
		cfg := internal.NewDefaultConfig()
		s = &session{base: base, cfg: cfg, logger: cliLogger(cfg.App.LogLevel)}
		withDB = false
	} else if err != nil {
		return err
	}
	s.cfg.Graph = true
	c, err := s.assemble(withDB, nil)
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Pipeline.RunGraph()
	return err
}

func runBacklinks(_ context.Context, cmd *cli.Command, out io.Writer) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("backlinks: ID is required")
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	c, err := s.assemble(true, nil)
	if err != nil {
		return err
	}
	defer c.Close()
	links, err := c.Query.Backlinks(id)
	if err != nil {
		return err
	}
	for _, l := range links {
		fmt.Fprintf(out, "%s\t%d\n", l.ID, l.Count)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	c, err := s.assemble(true, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Pipeline.Run(); err != nil {
		s.logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watcher.Watch(ctx, s.base, c.Pipeline, watcher.DefaultDebounce, s.logger,
		func(rep *rebuild.Report, err error) {
			if err == nil && len(rep.Broken) > 0 {
				s.logger.Info("broken links remain", slog.Int("count", len(rep.Broken)))
			}
		})
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(s.cfg), internal.WithBaseDir(s.base)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	c, err := s.assemble(true, nil)
	if err != nil {
		return err
	}
	defer c.Close()
	return mcpserver.New(c.Query, c.Notes, c.Pipeline, version).ServeStdio()
}
