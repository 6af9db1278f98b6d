package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	notes  *noteservice.Service
	search *search.Service
}

// NewHandler creates a new Handler.
func NewHandler(notes *noteservice.Service, searchSvc *search.Service) *Handler {
	return &Handler{notes: notes, search: searchSvc}
}

// pathParam returns a decoded URL parameter. chi matches on RawPath when the
// request has one, leaving the parameter percent-encoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetNote handles GET /api/notes/{noteId}.
//
//	@Summary		Get a single note with its attributes
//	@Tags			notes
//	@Produce		json
//	@Param			noteId	path		string	true	"Note id"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{noteId} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "noteId")
	note, err := h.notes.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err, slog.String("note_id", id))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// SearchFromNote handles GET /api/search-note/{noteId}.
//
//	@Summary		Resolve a search note to matching note ids
//	@Tags			search
//	@Produce		json
//	@Param			noteId	path		string	true	"Search note id"
//	@Success		200		{object}	NoteIDsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search-note/{noteId} [get]
func (h *Handler) SearchFromNote(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "noteId")
	ids, err := h.search.SearchFromNote(r.Context(), id)
	if err != nil {
		writeError(w, "search from note", err, slog.String("note_id", id))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ids))
}

// SearchAndExecute handles POST /api/search-and-execute-note/{noteId}.
//
//	@Summary		Run the actions of a search note on every match
//	@Tags			search
//	@Produce		json
//	@Param			noteId	path		string	true	"Search note id"
//	@Success		200		{object}	ExecuteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search-and-execute-note/{noteId} [post]
func (h *Handler) SearchAndExecute(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "noteId")
	if err := h.search.SearchAndExecute(r.Context(), id); err != nil {
		writeError(w, "search and execute", err, slog.String("note_id", id))
		return
	}
	writeJSON(w, http.StatusOK, ExecuteResponse{NoteID: id, Status: "ok"})
}

// Search handles GET /api/search/{query}. Archived notes are included.
//
//	@Summary		Search notes, including archived ones
//	@Tags			search
//	@Produce		json
//	@Param			query	path		string	true	"Search string"
//	@Success		200		{object}	NoteIDsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/{query} [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	h.runQuery(w, r, "search", h.search.Search)
}

// QuickSearch handles GET /api/quick-search/{query}. Archived notes are excluded.
//
//	@Summary		Search notes, excluding archived ones
//	@Tags			search
//	@Produce		json
//	@Param			query	path		string	true	"Search string"
//	@Success		200		{object}	NoteIDsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/quick-search/{query} [get]
func (h *Handler) QuickSearch(w http.ResponseWriter, r *http.Request) {
	h.runQuery(w, r, "quick search", h.search.QuickSearch)
}

func (h *Handler) runQuery(w http.ResponseWriter, r *http.Request, op string,
	find func(context.Context, string) ([]string, error)) {
	q := strings.TrimSpace(pathParam(r, "query"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query is required"))
		return
	}
	ids, err := find(r.Context(), q)
	if err != nil {
		writeError(w, op, err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ids))
}

// RelatedNotes handles POST /api/search-related.
//
//	@Summary		Find notes sharing an attribute
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RelatedNotesRequest	true	"Attribute"
//	@Success		200		{object}	RelatedResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search-related [post]
func (h *Handler) RelatedNotes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RelatedNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	related, err := h.search.RelatedNotes(r.Context(), models.Attribute{Type: req.Type, Name: req.Name, Value: req.Value})
	if err != nil {
		writeError(w, "related notes", err, slog.String("name", req.Name))
		return
	}
	writeJSON(w, http.StatusOK, related)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
