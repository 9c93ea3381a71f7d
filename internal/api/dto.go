package api

import (
	"github.com/starford/zettl/internal/linkdb"
	"github.com/starford/zettl/internal/query"
	"github.com/starford/zettl/internal/rebuild"
)

// NoteDetail is the full note response type (aliased from the query layer).
type NoteDetail = query.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the query layer).
type NoteListItem = query.NoteListItem

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// GraphNode is a node in the link graph.
type GraphNode struct {
	ID string `json:"id" example:"notes/hello" validate:"required"`
}

// GraphLink is an edge in the link graph.
type GraphLink struct {
	Source string `json:"source" example:"notes/hello" validate:"required"`
	Target string `json:"target" example:"notes/world" validate:"required"`
}

// GraphResponse is the graph document as served.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// NeighboursResponse lists the notes on the other end of a note's links.
type NeighboursResponse struct {
	ID    string             `json:"id" example:"notes/hello" validate:"required"`
	Notes []linkdb.LinkCount `json:"notes" validate:"required"`
}

// RebuildResponse is returned by POST /rebuild.
type RebuildResponse = rebuild.Report
