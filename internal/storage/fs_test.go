package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func tempTree(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := tempTree(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempTree(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempTree(t)
	_ = s.Write(".graph.json", []byte("old"))
	if err := s.Write(".graph.json", []byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read(".graph.json")
	if string(got) != "new" {
		t.Errorf("expected new content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestOverwriteTruncates(t *testing.T) {
	s := tempTree(t)
	if err := s.Overwrite("_index.md", []byte("a much longer first version")); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	if err := s.Overwrite("_index.md", []byte("short")); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	got, _ := s.Read("_index.md")
	if string(got) != "short" {
		t.Errorf("content = %q, want short", got)
	}
}

func TestReadDirAndStat(t *testing.T) {
	s := tempTree(t)
	_ = s.Write("b.md", []byte("b"))
	_ = s.MkdirAll("a")

	entries, err := s.ReadDir("")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 || entries[0].Name() != "a" || entries[1].Name() != "b.md" {
		t.Errorf("entries = %v", entries)
	}
	info, err := s.Stat("a")
	if err != nil || !info.IsDir() {
		t.Errorf("Stat(a) = %v, %v", info, err)
	}
}

func TestWalkIncludesHidden(t *testing.T) {
	s := tempTree(t)
	_ = s.Write("notes/a.md", []byte("a"))
	_ = s.Write(".hidden/b.md", []byte("b"))

	var files []string
	err := s.Walk(func(rel string, d fs.DirEntry) error {
		if !d.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	sort.Strings(files)
	if len(files) != 2 || files[0] != ".hidden/b.md" || files[1] != "notes/a.md" {
		t.Errorf("files = %v", files)
	}
}

func TestList(t *testing.T) {
	s := tempTree(t)
	_ = s.Write("notes/a.md", []byte("a"))
	_ = s.Write("notes/sub/b.md", []byte("b"))
	_ = s.Write("notes/_index.md", []byte("idx"))
	_ = s.Write("notes/readme.txt", []byte("not md"))

	items, err := s.List("notes")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != "notes/a" || items[1].ID != "notes/sub/b" {
		t.Errorf("ids = %q, %q", items[0].ID, items[1].ID)
	}
}

func TestExists(t *testing.T) {
	s := tempTree(t)
	_ = s.Write("x.md", []byte("x"))
	if !s.Exists("x.md") {
		t.Error("x.md should exist")
	}
	if s.Exists("y.md") || s.Exists("../x.md") {
		t.Error("missing or escaping paths should not exist")
	}
}

func TestChtimesKeepsZeroField(t *testing.T) {
	s := tempTree(t)
	if err := s.MkdirAll("d"); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2020, time.May, 1, 10, 0, 0, 0, time.Local)
	if err := s.Chtimes("d", time.Time{}, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	info, err := s.Stat("d")
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}
	if err := s.Chtimes("../d", time.Time{}, mtime); err == nil {
		t.Error("escaping path should be rejected")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempTree(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if err := s.Overwrite(p, []byte("x")); err == nil {
			t.Errorf("expected error for overwrite of %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "zettl-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
