package index

import (
	"context"

	"github.com/starford/laguz/internal/models"
)

// NoteIndex defines the note graph operations offered by the store.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type NoteIndex interface {
	GetNote(ctx context.Context, id string) (*models.Note, error)
	CreateNote(ctx context.Context, n *models.Note) error
	SaveNote(ctx context.Context, n *models.Note) error
	SaveRevision(ctx context.Context, noteID string) (*models.Revision, error)
	Revisions(ctx context.Context, noteID string) ([]models.Revision, error)
	EraseRevisions(ctx context.Context, ids []string) error
	Ancestors(ctx context.Context, id string) ([]string, error)
	AllNotes(ctx context.Context) (map[string]*models.Note, error)
	SearchContent(ctx context.Context, term string) (map[string]struct{}, error)
	AllChecksums(ctx context.Context) (map[string]string, error)
	DeleteBySource(ctx context.Context, path string) (string, error)
	SetProtectedSession(active bool)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
