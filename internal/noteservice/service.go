package noteservice

import (
	"context"
	"time"

	"github.com/starford/laguz/internal/index"
	"github.com/starford/laguz/internal/models"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	NoteID             string              `json:"noteId"`
	Title              string              `json:"title"`
	Type               string              `json:"type"`
	Mime               string              `json:"mime,omitempty"`
	Content            string              `json:"content"`
	IsProtected        bool                `json:"isProtected"`
	IsDeleted          bool                `json:"isDeleted"`
	IsContentAvailable bool                `json:"isContentAvailable"`
	ParentNoteIDs      []string            `json:"parentNoteIds"`
	Attributes         []*models.Attribute `json:"attributes"`
	Inherited          []*models.Attribute `json:"inheritedAttributes"`
	Revisions          []models.Revision   `json:"revisions"`
	DateCreated        time.Time           `json:"dateCreated"`
	DateModified       time.Time           `json:"dateModified"`
}

// Service reads notes from the graph for presentation.
type Service struct {
	db index.NoteIndex
}

// NewService creates a new note service.
func NewService(db index.NoteIndex) *Service {
	return &Service{db: db}
}

// GetNote loads a note with its attributes and revisions.
func (s *Service) GetNote(ctx context.Context, noteID string) (*NoteDetail, error) {
	n, err := s.db.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	revs, err := s.db.Revisions(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		NoteID:             n.ID,
		Title:              n.Title,
		Type:               n.Type,
		Mime:               n.Mime,
		Content:            n.Content,
		IsProtected:        n.IsProtected,
		IsDeleted:          n.IsDeleted,
		IsContentAvailable: n.IsContentAvailable,
		ParentNoteIDs:      nonNilSlice(n.ParentIDs),
		Attributes:         nonNilSlice(live(n.Attributes)),
		Inherited:          nonNilSlice(live(n.Inherited)),
		Revisions:          nonNilSlice(revs),
		DateCreated:        n.DateCreated,
		DateModified:       n.DateModified,
	}, nil
}

func live(attrs []*models.Attribute) []*models.Attribute {
	var out []*models.Attribute
	for _, a := range attrs {
		if !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
