package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rundberg/ansuz/internal/noteservice"
	"github.com/rundberg/ansuz/internal/search"
	"github.com/rundberg/ansuz/internal/syncer"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, engine *search.Engine, sync *syncer.Syncer, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, engine, sync)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/{id}", h.GetDocument)
	r.Put("/documents/{id}", h.UpdateDocument)
	r.Delete("/documents/{id}", h.DeleteDocument)
	r.Get("/documents/{id}/backlinks", h.Backlinks)

	// Search.
	r.Get("/search", h.Search)
	r.Post("/search/semantic", h.SemanticSearch)

	// Graph.
	r.Get("/graph", h.Graph)
	r.Get("/graph/local", h.LocalGraph)

	// Embedding cache maintenance.
	r.Post("/embeddings/sync", h.SyncEmbeddings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
