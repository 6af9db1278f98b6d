package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(notes *noteservice.Service, searchSvc *search.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(notes, searchSvc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes/{noteId}", h.GetNote)

	// Saved searches.
	r.Get("/search-note/{noteId}", h.SearchFromNote)
	r.Post("/search-and-execute-note/{noteId}", h.SearchAndExecute)

	// Ad-hoc search.
	r.Get("/search/{query}", h.Search)
	r.Get("/quick-search/{query}", h.QuickSearch)
	r.Post("/search-related", h.RelatedNotes)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
