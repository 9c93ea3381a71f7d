package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zettl/internal/apperr"
	"github.com/starford/zettl/internal/query"
)

// Handler holds API route handlers.
type Handler struct {
	svc *query.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *query.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcard extracts the identifier after the route prefix.
// Supports encoded slashes (e.g. notes%2Fhello).
func wildcard(r *http.Request) string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error(op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List note identifiers
//	@Tags			notes
//	@Produce		json
//	@Param			dir	query		string	false	"Restrict to a subdirectory"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNotes(r.URL.Query().Get("dir"))
	if err != nil {
		h.fail(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by identifier
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note identifier"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := wildcard(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	note, err := h.svc.GetNote(id)
	if err != nil {
		h.fail(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Index handles GET /api/index/*. The document is served as markdown.
//
//	@Summary		Get the index document of a directory
//	@Tags			index
//	@Produce		text/markdown
//	@Param			dir	path	string	false	"Directory relative to the base"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index/{dir} [get]
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Index(wildcard(r))
	if err != nil {
		h.fail(w, "get index", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the link graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph()
	if err != nil {
		h.fail(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		Notes linking to a note
//	@Tags			graph
//	@Produce		json
//	@Param			id	path		string	true	"Note identifier"
//	@Success		200	{object}	NeighboursResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{id} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id := wildcard(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	notes, err := h.svc.Backlinks(id)
	if err != nil {
		h.fail(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, NeighboursResponse{ID: id, Notes: notes})
}

// Outlinks handles GET /api/outlinks/*.
//
//	@Summary		Notes a note links to
//	@Tags			graph
//	@Produce		json
//	@Param			id	path		string	true	"Note identifier"
//	@Success		200	{object}	NeighboursResponse
//	@Security		BearerAuth
//	@Router			/outlinks/{id} [get]
func (h *Handler) Outlinks(w http.ResponseWriter, r *http.Request) {
	id := wildcard(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	notes, err := h.svc.Outlinks(id)
	if err != nil {
		h.fail(w, "outlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, NeighboursResponse{ID: id, Notes: notes})
}

// Stats handles GET /api/stats.
//
//	@Summary		Summary of the last mirrored graph build
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	linkdb.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	st, err := h.svc.Stats()
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Rebuild handles POST /api/rebuild.
//
//	@Summary		Regenerate indexes and the graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	RebuildResponse
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, _ *http.Request) {
	rep, err := h.svc.Rebuild()
	if err != nil {
		h.fail(w, "rebuild", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
