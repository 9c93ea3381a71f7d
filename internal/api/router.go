package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/zettl/internal/query"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *query.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	r.Get("/index", h.Index)
	r.Get("/index/*", h.Index)

	r.Get("/graph", h.Graph)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/outlinks/*", h.Outlinks)
	r.Get("/stats", h.Stats)
	r.Post("/rebuild", h.Rebuild)

	return r
}
