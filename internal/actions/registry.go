package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// Store is the subset of the note store the action handlers mutate through.
type Store interface {
	SaveNote(ctx context.Context, n *models.Note) error
	Revisions(ctx context.Context, noteID string) ([]models.Revision, error)
	EraseRevisions(ctx context.Context, ids []string) error
}

// Evaluator runs a user-supplied script with note as its only binding.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, note *models.Note) error
}

// Registry applies decoded actions to notes. It is built once at startup and
// shared by every search-and-execute pass.
type Registry struct {
	store  Store
	eval   Evaluator
	logger *slog.Logger
}

// NewRegistry creates a registry backed by store. eval may be nil, in which
// case executeScript actions fail.
func NewRegistry(store Store, eval Evaluator, logger *slog.Logger) *Registry {
	return &Registry{store: store, eval: eval, logger: logger}
}

// Apply executes a on note. A failure may leave earlier mutations of the
// same action committed.
func (r *Registry) Apply(ctx context.Context, a Action, note *models.Note) error {
	switch a := a.(type) {
	case DeleteNote:
		note.IsDeleted = true
		return r.save(ctx, note)

	case DeleteNoteRevisions:
		revs, err := r.store.Revisions(ctx, note.ID)
		if err != nil {
			return err
		}
		ids := make([]string, len(revs))
		for i, rev := range revs {
			ids[i] = rev.ID
		}
		return r.store.EraseRevisions(ctx, ids)

	case DeleteLabel:
		note.RemoveLabel(a.LabelName)
		return r.save(ctx, note)

	case DeleteRelation:
		note.RemoveRelation(a.RelationName)
		return r.save(ctx, note)

	case RenameLabel:
		for _, l := range note.OwnedLabels(a.OldLabelName) {
			l.Name = a.NewLabelName
		}
		return r.save(ctx, note)

	case RenameRelation:
		for _, rel := range note.OwnedRelations(a.OldRelationName) {
			rel.Name = a.NewRelationName
		}
		return r.save(ctx, note)

	case SetLabelValue:
		note.SetLabel(a.LabelName, a.LabelValue)
		return r.save(ctx, note)

	case SetRelationTarget:
		note.SetRelation(a.RelationName, a.TargetNoteID)
		return r.save(ctx, note)

	case ExecuteScript:
		if strings.TrimSpace(a.Script) == "" {
			r.logger.Info("actions: empty script, nothing to run", slog.String("note_id", note.ID))
			return nil
		}
		if r.eval == nil {
			return fmt.Errorf("actions: no script evaluator configured")
		}
		if err := r.eval.Evaluate(ctx, a.Script, note); err != nil {
			return err
		}
		return r.save(ctx, note)
	}
	return fmt.Errorf("%w: %T", ErrUnknownKind, a)
}

func (r *Registry) save(ctx context.Context, note *models.Note) error {
	if err := r.store.SaveNote(ctx, note); err != nil {
		return fmt.Errorf("actions: save note %s: %w", note.ID, err)
	}
	return nil
}
