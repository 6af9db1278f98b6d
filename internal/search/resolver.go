package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// Labels and relations a search note is configured with.
const (
	LabelSearchString         = "searchString"
	LabelFastSearch           = "fastSearch"
	LabelAncestorDepth        = "ancestorDepth"
	LabelIncludeArchivedNotes = "includeArchivedNotes"
	LabelOrderBy              = "orderBy"
	LabelOrderDirection       = "orderDirection"
	LabelLimit                = "limit"
	LabelDebug                = "debug"
	RelationSearchScript      = "searchScript"
	RelationAncestor          = "ancestor"
)

// NoteGetter loads a single note.
type NoteGetter interface {
	GetNote(ctx context.Context, id string) (*models.Note, error)
}

// QueryEngine evaluates a search string.
type QueryEngine interface {
	FindNotesWithQuery(ctx context.Context, query string, sc models.SearchContext) ([]models.SearchResult, error)
}

// ScriptRunner executes a backend script note on behalf of origin.
type ScriptRunner interface {
	ExecuteNote(ctx context.Context, script, origin *models.Note) (any, error)
}

// Resolver turns a search note into the ids of the notes it targets.
type Resolver struct {
	notes  NoteGetter
	engine QueryEngine
	runner ScriptRunner
	logger *slog.Logger
}

// NewResolver creates a resolver. runner may be nil, which disables
// script-delegated searches.
func NewResolver(notes NoteGetter, engine QueryEngine, runner ScriptRunner, logger *slog.Logger) *Resolver {
	return &Resolver{notes: notes, engine: engine, runner: runner, logger: logger}
}

// Resolve returns the deduplicated candidate ids of searchNote in result order.
// The root note and the search note itself are never returned.
func (r *Resolver) Resolve(ctx context.Context, searchNote *models.Note) ([]string, error) {
	var (
		ids []string
		err error
	)
	if scriptID := searchNote.RelationTarget(RelationSearchScript); scriptID != "" {
		ids, err = r.fromScript(ctx, searchNote, scriptID)
	} else {
		ids, err = r.fromQuery(ctx, searchNote)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == models.RootNoteID || id == searchNote.ID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// fromScript delegates to a script note. Every way the delegate can be
// unusable yields an empty result rather than an error.
func (r *Resolver) fromScript(ctx context.Context, searchNote *models.Note, scriptID string) ([]string, error) {
	log := r.logger.With(slog.String("note_id", searchNote.ID), slog.String("script_note_id", scriptID))

	script, err := r.notes.GetNote(ctx, scriptID)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && script.IsDeleted) {
		log.Info("search: script note not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !script.IsBackendScript() {
		log.Info("search: script note is not a backend script")
		return nil, nil
	}
	if !searchNote.IsContentAvailable {
		log.Info("search: search note content is not available")
		return nil, nil
	}
	if r.runner == nil {
		log.Info("search: script execution is disabled")
		return nil, nil
	}

	result, err := r.runner.ExecuteNote(ctx, script, searchNote)
	if err != nil {
		log.Error("search: script failed", slog.String("error", err.Error()))
		return nil, nil
	}
	ids, ok := scriptResultIDs(result)
	if !ok {
		log.Info("search: script returned an unsupported result", slog.String("type", fmt.Sprintf("%T", result)))
		return nil, nil
	}
	return ids, nil
}

// scriptResultIDs accepts an array of note ids or an array of objects that
// carry a noteId field.
func scriptResultIDs(result any) ([]string, bool) {
	arr, ok := result.([]any)
	if !ok {
		return nil, false
	}
	if len(arr) == 0 {
		return nil, true
	}
	ids := make([]string, 0, len(arr))
	if _, isString := arr[0].(string); isString {
		for _, v := range arr {
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			ids = append(ids, s)
		}
		return ids, true
	}
	for _, v := range arr {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		id, ok := obj["noteId"].(string)
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func (r *Resolver) fromQuery(ctx context.Context, searchNote *models.Note) ([]string, error) {
	query := strings.TrimSpace(searchNote.LabelValue(LabelSearchString))
	if query == "" {
		return nil, nil
	}
	results, err := r.engine.FindNotesWithQuery(ctx, query, ContextFromNote(searchNote))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.NoteID
	}
	return ids, nil
}

// ContextFromNote builds the search context configured on a search note.
// Fuzzy attribute matching is always off for saved searches.
func ContextFromNote(n *models.Note) models.SearchContext {
	limit, _ := strconv.Atoi(strings.TrimSpace(n.LabelValue(LabelLimit)))
	return models.SearchContext{
		FastSearch:           n.HasLabel(LabelFastSearch),
		AncestorNoteID:       n.RelationTarget(RelationAncestor),
		AncestorDepth:        n.LabelValue(LabelAncestorDepth),
		IncludeArchivedNotes: n.HasLabel(LabelIncludeArchivedNotes),
		OrderBy:              n.LabelValue(LabelOrderBy),
		OrderDirection:       n.LabelValue(LabelOrderDirection),
		Limit:                limit,
		Debug:                n.HasLabel(LabelDebug),
	}
}
