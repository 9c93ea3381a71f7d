package ident

import (
	"path/filepath"
	"testing"
)

func TestFromPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "tmp", "zettel")
	id, err := FromPath(root, filepath.Join(root, "projects", "apple", "pen.md"))
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if id != "projects/apple/pen" {
		t.Errorf("id = %q, want projects/apple/pen", id)
	}
}

func TestFromPath_IndexFileKeepsStem(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "tmp", "zettel")
	id, _ := FromPath(root, filepath.Join(root, "notes", "_index.md"))
	if id != "notes/_index" {
		t.Errorf("id = %q, want notes/_index", id)
	}
}

func TestIsNote(t *testing.T) {
	if !IsNote("a.md") {
		t.Error("a.md should be a note")
	}
	for _, name := range []string{"a.txt", "md", "a.md.bak", ".graph.json"} {
		if IsNote(name) {
			t.Errorf("%q should not be a note", name)
		}
	}
}

func TestIsIndexFile(t *testing.T) {
	if !IsIndexFile("_index.md") {
		t.Error("_index.md should be an index file")
	}
	if IsIndexFile("index.md") || IsIndexFile("_index.txt") {
		t.Error("only _index.md is reserved")
	}
}

func TestIndexOf(t *testing.T) {
	if got := IndexOf("notes/sub"); got != "notes/sub/_index" {
		t.Errorf("IndexOf = %q", got)
	}
	if got := IndexOf(""); got != "_index" {
		t.Errorf("IndexOf(root) = %q", got)
	}
}

func TestIsHidden(t *testing.T) {
	if !IsHidden(".zettl") || !IsHidden(".git/config") {
		t.Error("dot-prefixed paths should be hidden")
	}
	if IsHidden("notes/.draft") {
		t.Error("only the leading segment is checked")
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"notes":       "Notes",
		"daily-log":   "Daily Log",
		"my_projects": "My Projects",
		"dailyLog":    "Daily Log",
		"HTTPServer":  "Http Server",
		"2024-01-05":  "2024 01 05",
		"APPLE pen":   "Apple Pen",
		"":            "",
	}
	for in, want := range cases {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
