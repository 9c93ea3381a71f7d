// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes zettl tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/zettl/internal/notes"
	"github.com/starford/zettl/internal/query"
	"github.com/starford/zettl/internal/rebuild"
)

const contractURI = "zettl://note-format"

// Server wraps the MCP server with zettl tools.
type Server struct {
	mcp      *server.MCPServer
	query    *query.Service
	notes    *notes.Service
	pipeline *rebuild.Pipeline
}

// New creates a new MCP server with all zettl tools registered.
func New(q *query.Service, n *notes.Service, p *rebuild.Pipeline, version string) *Server {
	s := &Server{query: q, notes: n, pipeline: p}

	s.mcp = server.NewMCPServer(
		"zettl",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("rebuild",
		mcp.WithDescription("Regenerate every _index.md and the .graph.json link graph. "+
			"Returns node, link and broken-link counts."),
	), s.rebuild)

	s.mcp.AddTool(mcp.NewTool("build_indexes",
		mcp.WithDescription("Regenerate the _index.md document of every directory."),
	), s.buildIndexes)

	s.mcp.AddTool(mcp.NewTool("build_graph",
		mcp.WithDescription("Regenerate the .graph.json link graph and report broken links."),
	), s.buildGraph)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its front matter, outgoing links and backlinks."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note identifier, e.g. notes/apple")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note identifiers, optionally restricted to a folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Identifier of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_outlinks",
		mcp.WithDescription("Find all notes the specified note links to."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Identifier of the linking note")),
	), s.getOutlinks)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create notes/<name>.md with a front matter skeleton if it does not exist, "+
			"then rebuild. Read the format first via get_note_contract or "+contractURI+"."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, may contain / for subfolders")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("fleet_note",
		mcp.WithDescription("Create today's fleeting note if missing, then rebuild."),
	), s.fleetNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the zettl note format: identifiers, links and generated files."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format",
			mcp.WithResourceDescription("Markdown note format understood by the index and graph builders."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) rebuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.pipeline.Run()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) buildIndexes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.pipeline.RunIndexes(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("indexes rebuilt"), nil
}

func (s *Server) buildGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.pipeline.RunGraph()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.query.GetNote(id)
	if err != nil {
		return mcp.NewToolResultError("not found: " + id), nil
	}
	return jsonResult(note)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	items, err := s.query.ListNotes(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.query.Backlinks(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	ids := make([]string, len(bl))
	for i, lc := range bl {
		ids[i] = lc.ID
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) getOutlinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ol, err := s.query.Outlinks(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(ol) == 0 {
		return mcp.NewToolResultText("no outgoing links found"), nil
	}
	ids := make([]string, len(ol))
	for i, lc := range ol {
		ids[i] = lc.ID
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rel, err := s.notes.Note(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("created: " + rel), nil
}

func (s *Server) fleetNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rel, err := s.notes.Fleet(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("fleeting note: " + rel), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
