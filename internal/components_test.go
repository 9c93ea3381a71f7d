package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/zettl/internal/linkgraph"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAssemble_FullPipeline(t *testing.T) {
	base := t.TempDir()
	_ = os.WriteFile(filepath.Join(base, "a.md"), []byte("[[b]]"), 0o644)
	_ = os.WriteFile(filepath.Join(base, "b.md"), nil, 0o644)

	c, err := Assemble(base, NewDefaultConfig(), true, nil, quietLogger())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	defer c.Close()
	if c.DB == nil {
		t.Fatal("link db should be opened")
	}

	rep, err := c.Pipeline.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Indexes || !rep.Graph {
		t.Errorf("report = %+v", rep)
	}
	if _, err := os.Stat(filepath.Join(base, ".zettl", "links.db")); err != nil {
		t.Errorf("db not created: %v", err)
	}
	bl, err := c.Query.Backlinks("b")
	if err != nil || len(bl) == 0 || bl[0].ID != "_index" {
		t.Errorf("backlinks = %+v, %v", bl, err)
	}
}

func TestAssemble_BuildersFollowConfig(t *testing.T) {
	base := t.TempDir()
	_ = os.WriteFile(filepath.Join(base, "a.md"), nil, 0o644)
	cfg := NewDefaultConfig()
	cfg.Indexes = false

	c, err := Assemble(base, cfg, false, nil, quietLogger())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if c.DB != nil {
		t.Error("db should not be opened")
	}
	if _, err := c.Notes.Note(context.Background(), "x"); err != nil {
		t.Fatalf("Note: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "_index.md")); !os.IsNotExist(err) {
		t.Error("indexes disabled but _index.md written")
	}
	if _, err := os.Stat(filepath.Join(base, linkgraph.DocumentName)); err != nil {
		t.Errorf("graph not written: %v", err)
	}
}

func TestAssemble_MissingBase(t *testing.T) {
	if _, err := Assemble(filepath.Join(t.TempDir(), "nope"), NewDefaultConfig(), false, nil, quietLogger()); err == nil {
		t.Fatal("expected error for missing base directory")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background(), WithBaseDir(t.TempDir())); err == nil {
		t.Fatal("expected error without config")
	}
	if err := Run(context.Background(), WithConfig(NewDefaultConfig())); err == nil {
		t.Fatal("expected error without base dir")
	}
}
