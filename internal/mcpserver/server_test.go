package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/zettl/internal/indexer"
	"github.com/starford/zettl/internal/linkdb"
	"github.com/starford/zettl/internal/linkgraph"
	"github.com/starford/zettl/internal/notes"
	"github.com/starford/zettl/internal/query"
	"github.com/starford/zettl/internal/rebuild"
	"github.com/starford/zettl/internal/storage"
	"github.com/starford/zettl/internal/testutil"
)

func testServer(t *testing.T) (*Server, string, *storage.FS) {
	t.Helper()

	root, store := testutil.TestTree(t, "zettel")
	db, err := linkdb.Open(filepath.Join(t.TempDir(), "links.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := rebuild.New(
		rebuild.WithIndexer(indexer.New(store, "Ann", indexer.WithLogger(logger))),
		rebuild.WithGraph(linkgraph.New(store, logger)),
		rebuild.WithMirror(db),
		rebuild.WithLogger(logger),
	)
	clock := testutil.FixedClock(time.Date(2024, time.March, 4, 9, 30, 0, 0, time.Local))
	n := notes.NewService(store, "Ann", nil, p, notes.WithLogger(logger), notes.WithClock(clock))
	srv := New(query.NewService(store, db, p), n, p, "test")
	return srv, root, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "rebuild":
		result, err = srv.rebuild(ctx, req)
	case "build_indexes":
		result, err = srv.buildIndexes(ctx, req)
	case "build_graph":
		result, err = srv.buildGraph(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_outlinks":
		result, err = srv.getOutlinks(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "fleet_note":
		result, err = srv.fleetNote(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRebuildReportsCounts(t *testing.T) {
	srv, root, _ := testServer(t)
	testutil.WriteFile(t, root, "a.md", "[[b]] [[nope]]")
	testutil.WriteFile(t, root, "b.md", "")

	r := callTool(t, srv, "rebuild", nil)
	if r.IsError {
		t.Fatalf("rebuild error: %s", resultText(r))
	}
	var rep rebuild.Report
	if err := json.Unmarshal([]byte(resultText(r)), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	// a, b, _index
	if rep.Nodes != 3 || len(rep.Broken) != 1 || rep.Broken[0].Target != "nope" {
		t.Errorf("report = %+v", rep)
	}
}

func TestBuildIndexesOnly(t *testing.T) {
	srv, root, store := testServer(t)
	testutil.WriteFile(t, root, "a.md", "")

	r := callTool(t, srv, "build_indexes", nil)
	if r.IsError {
		t.Fatalf("build_indexes: %s", resultText(r))
	}
	if !store.Exists("_index.md") || store.Exists(linkgraph.DocumentName) {
		t.Error("build_indexes should write indexes only")
	}

	r = callTool(t, srv, "build_graph", nil)
	if r.IsError || !store.Exists(linkgraph.DocumentName) {
		t.Errorf("build_graph: %s", resultText(r))
	}
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{"name": "pen-holder"})
	if text := resultText(r); text != "created: notes/pen-holder.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": "notes/pen-holder"})
	if r.IsError {
		t.Fatalf("read: %s", resultText(r))
	}
	var note query.NoteDetail
	_ = json.Unmarshal([]byte(resultText(r)), &note)
	if note.Title != "Pen Holder" || note.Author != "Ann" {
		t.Errorf("note = %+v", note)
	}
}

func TestFleetNote(t *testing.T) {
	srv, _, store := testServer(t)
	r := callTool(t, srv, "fleet_note", nil)
	if text := resultText(r); text != "fleeting note: fleets/2024-03-04.md" {
		t.Errorf("fleet result = %q", text)
	}
	if !store.Exists("fleets/_index.md") {
		t.Error("fleet creation should rebuild indexes")
	}
}

func TestListNotes(t *testing.T) {
	srv, root, _ := testServer(t)
	testutil.WriteFile(t, root, "notes/a.md", "")
	testutil.WriteFile(t, root, "notes/b.md", "")
	testutil.WriteFile(t, root, "notes/_index.md", "")

	r := callTool(t, srv, "list_notes", map[string]interface{}{"folder": "notes"})
	ids := strings.Split(resultText(r), "\n")
	if len(ids) != 2 {
		t.Errorf("list = %q", resultText(r))
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestBacklinksAndOutlinks(t *testing.T) {
	srv, root, _ := testServer(t)
	testutil.WriteFile(t, root, "a.md", "links to [[b]]")
	testutil.WriteFile(t, root, "b.md", "")
	_ = callTool(t, srv, "build_graph", nil)

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"id": "b"})
	if text := resultText(r); text != "a" {
		t.Errorf("backlinks = %q, want a", text)
	}
	r = callTool(t, srv, "get_outlinks", map[string]interface{}{"id": "a"})
	if text := resultText(r); text != "b" {
		t.Errorf("outlinks = %q, want b", text)
	}
	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"id": "a"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("backlinks of a = %q", text)
	}
}

func TestNoteContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", nil)
	if !strings.Contains(resultText(r), "[[identifier]]") {
		t.Error("contract should describe link syntax")
	}
}
