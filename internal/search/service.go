// Package search resolves saved searches into target notes and runs their
// actions. It also serves ad-hoc and related-note searches.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/laguz/internal/actions"
	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// LabelAutoExecute marks a search note whose actions run whenever it changes.
const LabelAutoExecute = "autoExecute"

// RelatedLimit caps the number of related notes returned.
const RelatedLimit = 20

// Notifier receives note change events, e.g. the SSE broker.
type Notifier interface {
	PublishNoteEvent(kind, noteID string)
	PublishExecution(noteID string, candidates, failures int)
}

// Related is the result of a related-notes lookup. Count is the number of
// matches before deduplication and capping.
type Related struct {
	Count   int                   `json:"count"`
	Results []models.SearchResult `json:"results"`
}

// Service is the entry point for every search operation.
type Service struct {
	notes    NoteGetter
	resolver *Resolver
	registry *actions.Registry
	engine   QueryEngine
	notifier Notifier
	logger   *slog.Logger
}

// NewService wires the search service. notifier may be nil.
func NewService(notes NoteGetter, resolver *Resolver, registry *actions.Registry, engine QueryEngine, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		notes:    notes,
		resolver: resolver,
		registry: registry,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
	}
}

// searchNote loads id and checks it is a search note. A soft-deleted note is
// returned with a nil error so callers can treat it as an empty result.
func (s *Service) searchNote(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.notes.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("search: note %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	if n.IsDeleted {
		return n, nil
	}
	if n.Type != models.NoteTypeSearch {
		return nil, fmt.Errorf("search: note %s has type %q: %w", id, n.Type, apperr.ErrTypeMismatch)
	}
	return n, nil
}

// SearchFromNote returns the ids a search note currently resolves to.
func (s *Service) SearchFromNote(ctx context.Context, noteID string) ([]string, error) {
	n, err := s.searchNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted {
		return []string{}, nil
	}
	return s.resolver.Resolve(ctx, n)
}

// SearchAndExecute resolves a search note and applies each of its actions to
// every candidate, in order. A failing (action, note) pair is logged and
// skipped; nothing is rolled back.
func (s *Service) SearchAndExecute(ctx context.Context, noteID string) error {
	n, err := s.searchNote(ctx, noteID)
	if err != nil {
		return err
	}
	if n.IsDeleted {
		return nil
	}

	ids, err := s.resolver.Resolve(ctx, n)
	if err != nil {
		return err
	}
	acts := actions.Parse(n, s.logger)
	if len(acts) == 0 {
		s.logger.Info("search: no actions to execute", slog.String("note_id", noteID))
		return nil
	}

	failures := 0
	for _, id := range ids {
		target, err := s.notes.GetNote(ctx, id)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				s.logger.Error("search: load candidate failed",
					slog.String("note_id", id), slog.String("error", err.Error()))
			}
			continue
		}
		if target.IsDeleted {
			continue
		}

		for _, a := range acts {
			if err := s.registry.Apply(ctx, a, target); err != nil {
				failures++
				s.logger.Error("search: action failed",
					slog.String("search_note_id", noteID),
					slog.String("note_id", id),
					slog.String("action", a.Kind()),
					slog.String("error", err.Error()))
			}
		}

		if s.notifier != nil {
			kind := "updated"
			if target.IsDeleted {
				kind = "deleted"
			}
			s.notifier.PublishNoteEvent(kind, id)
		}
	}

	s.logger.Info("search: executed",
		slog.String("note_id", noteID),
		slog.Int("candidates", len(ids)),
		slog.Int("actions", len(acts)),
		slog.Int("failures", failures))
	if s.notifier != nil {
		s.notifier.PublishExecution(noteID, len(ids), failures)
	}
	return nil
}

// Search runs an ad-hoc query. Archived notes are included.
func (s *Service) Search(ctx context.Context, query string) ([]string, error) {
	return s.find(ctx, query, models.SearchContext{IncludeArchivedNotes: true})
}

// QuickSearch runs an ad-hoc query. Archived notes are excluded.
func (s *Service) QuickSearch(ctx context.Context, query string) ([]string, error) {
	return s.find(ctx, query, models.SearchContext{})
}

func (s *Service) find(ctx context.Context, query string, sc models.SearchContext) ([]string, error) {
	results, err := s.engine.FindNotesWithQuery(ctx, query, sc)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.NoteID
	}
	return ids, nil
}

// RelatedNotes finds notes sharing attr. Notes matching name and value come
// before notes matching the name only.
func (s *Service) RelatedNotes(ctx context.Context, attr models.Attribute) (Related, error) {
	withValue, err := FormatAttrForSearch(attr, true)
	if err != nil {
		return Related{}, err
	}
	nameOnly, err := FormatAttrForSearch(attr, false)
	if err != nil {
		return Related{}, err
	}

	sc := models.SearchContext{FastSearch: true}
	valueMatches, err := s.engine.FindNotesWithQuery(ctx, withValue, sc)
	if err != nil {
		return Related{}, err
	}
	nameMatches, err := s.engine.FindNotesWithQuery(ctx, nameOnly, sc)
	if err != nil {
		return Related{}, err
	}

	all := slices.Concat(valueMatches, nameMatches)
	out := Related{Count: len(all), Results: make([]models.SearchResult, 0, RelatedLimit)}
	seen := make(map[string]struct{}, len(all))
	for _, r := range all {
		if len(out.Results) == RelatedLimit {
			break
		}
		if _, dup := seen[r.NoteID]; dup {
			continue
		}
		seen[r.NoteID] = struct{}{}
		out.Results = append(out.Results, r)
	}
	return out, nil
}

// OnNoteChanged is the vault watcher callback: it forwards the change to the
// notifier and runs search notes labelled #autoExecute.
func (s *Service) OnNoteChanged(ctx context.Context, kind, noteID string) {
	if s.notifier != nil {
		s.notifier.PublishNoteEvent(kind, noteID)
	}
	if kind == "deleted" {
		return
	}

	n, err := s.notes.GetNote(ctx, noteID)
	if err != nil || n.IsDeleted || n.Type != models.NoteTypeSearch || !n.HasLabel(LabelAutoExecute) {
		return
	}
	if err := s.SearchAndExecute(ctx, noteID); err != nil {
		s.logger.Error("search: auto-execute failed",
			slog.String("note_id", noteID), slog.String("error", err.Error()))
	}
}
