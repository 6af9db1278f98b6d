// Package actions defines the mutations a search note can apply to the notes
// its query matches, and the registry that executes them.
package actions

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Action names as they appear in the "name" field of an action label.
const (
	KindDeleteNote          = "deleteNote"
	KindDeleteNoteRevisions = "deleteNoteRevisions"
	KindDeleteLabel         = "deleteLabel"
	KindDeleteRelation      = "deleteRelation"
	KindRenameLabel         = "renameLabel"
	KindRenameRelation      = "renameRelation"
	KindSetLabelValue       = "setLabelValue"
	KindSetRelationTarget   = "setRelationTarget"
	KindExecuteScript       = "executeScript"
)

// Kinds lists every supported action name.
var Kinds = []string{
	KindDeleteNote,
	KindDeleteNoteRevisions,
	KindDeleteLabel,
	KindDeleteRelation,
	KindRenameLabel,
	KindRenameRelation,
	KindSetLabelValue,
	KindSetRelationTarget,
	KindExecuteScript,
}

var (
	// ErrMalformed is returned for action text that is not a valid JSON object
	// or whose payload fails validation.
	ErrMalformed = errors.New("malformed action")
	// ErrUnknownKind is returned for an action whose name is not supported.
	ErrUnknownKind = errors.New("unknown action kind")
)

// Action is one decoded mutation. The set of implementations is closed.
type Action interface {
	Kind() string
	validation.Validatable
	action()
}

// DeleteNote soft-deletes the target note.
type DeleteNote struct{}

// DeleteNoteRevisions erases every revision of the target note.
type DeleteNoteRevisions struct{}

// DeleteLabel soft-deletes every owned label named LabelName.
type DeleteLabel struct {
	LabelName string `json:"labelName"`
}

// DeleteRelation soft-deletes every owned relation named RelationName.
type DeleteRelation struct {
	RelationName string `json:"relationName"`
}

// RenameLabel renames owned labels, keeping their values.
type RenameLabel struct {
	OldLabelName string `json:"oldLabelName"`
	NewLabelName string `json:"newLabelName"`
}

// RenameRelation renames owned relations, keeping their targets.
type RenameRelation struct {
	OldRelationName string `json:"oldRelationName"`
	NewRelationName string `json:"newRelationName"`
}

// SetLabelValue upserts a single label.
type SetLabelValue struct {
	LabelName  string `json:"labelName"`
	LabelValue string `json:"labelValue"`
}

// SetRelationTarget upserts a single relation.
type SetRelationTarget struct {
	RelationName string `json:"relationName"`
	TargetNoteID string `json:"targetNoteId"`
}

// ExecuteScript runs Script with the target note bound as `note`.
type ExecuteScript struct {
	Script string `json:"script"`
}

func (DeleteNote) Kind() string          { return KindDeleteNote }
func (DeleteNoteRevisions) Kind() string { return KindDeleteNoteRevisions }
func (DeleteLabel) Kind() string         { return KindDeleteLabel }
func (DeleteRelation) Kind() string      { return KindDeleteRelation }
func (RenameLabel) Kind() string         { return KindRenameLabel }
func (RenameRelation) Kind() string      { return KindRenameRelation }
func (SetLabelValue) Kind() string       { return KindSetLabelValue }
func (SetRelationTarget) Kind() string   { return KindSetRelationTarget }
func (ExecuteScript) Kind() string       { return KindExecuteScript }

func (DeleteNote) action()          {}
func (DeleteNoteRevisions) action() {}
func (DeleteLabel) action()         {}
func (DeleteRelation) action()      {}
func (RenameLabel) action()         {}
func (RenameRelation) action()      {}
func (SetLabelValue) action()       {}
func (SetRelationTarget) action()   {}
func (ExecuteScript) action()       {}

func (DeleteNote) Validate() error          { return nil }
func (DeleteNoteRevisions) Validate() error { return nil }

// Validate accepts a blank script; applying one is a logged no-op.
func (ExecuteScript) Validate() error { return nil }

func (a DeleteLabel) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.LabelName, validation.Required),
	)
}

func (a DeleteRelation) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RelationName, validation.Required),
	)
}

func (a RenameLabel) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.OldLabelName, validation.Required),
		validation.Field(&a.NewLabelName, validation.Required),
	)
}

func (a RenameRelation) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.OldRelationName, validation.Required),
		validation.Field(&a.NewRelationName, validation.Required),
	)
}

func (a SetLabelValue) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.LabelName, validation.Required),
	)
}

func (a SetRelationTarget) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RelationName, validation.Required),
		validation.Field(&a.TargetNoteID, validation.Required),
	)
}

// Decode turns the JSON text of an action label into an Action.
func Decode(raw string) (Action, error) {
	var envelope struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		a   Action
		err error
	)
	switch envelope.Name {
	case KindDeleteNote:
		a = DeleteNote{}
	case KindDeleteNoteRevisions:
		a = DeleteNoteRevisions{}
	case KindDeleteLabel:
		a, err = decodeInto[DeleteLabel](raw)
	case KindDeleteRelation:
		a, err = decodeInto[DeleteRelation](raw)
	case KindRenameLabel:
		a, err = decodeInto[RenameLabel](raw)
	case KindRenameRelation:
		a, err = decodeInto[RenameRelation](raw)
	case KindSetLabelValue:
		a, err = decodeInto[SetLabelValue](raw)
	case KindSetRelationTarget:
		a, err = decodeInto[SetRelationTarget](raw)
	case KindExecuteScript:
		a, err = decodeInto[ExecuteScript](raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, envelope.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Name, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Name, err)
	}
	return a, nil
}

func decodeInto[T Action](raw string) (Action, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}
