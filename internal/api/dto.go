package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// RelatedResponse is the response of POST /search-related (aliased from the domain layer).
type RelatedResponse = search.Related

// RelatedNotesRequest names the attribute to find related notes for.
type RelatedNotesRequest struct {
	Type  string `json:"type" example:"label" validate:"required"`
	Name  string `json:"name" example:"status" validate:"required"`
	Value string `json:"value" example:"done"`
}

// Validate implements validation.Validatable.
func (r RelatedNotesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(models.AttributeLabel, models.AttributeRelation)),
		validation.Field(&r.Name, validation.Required),
	)
}

// NoteIDsResponse is a list of matching note ids.
type NoteIDsResponse []string

// ExecuteResponse is returned after a search-and-execute run.
type ExecuteResponse struct {
	NoteID string `json:"noteId" example:"abc123" validate:"required"`
	Status string `json:"status" example:"ok" validate:"required"`
}
