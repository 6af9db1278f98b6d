// Package models defines the domain types for Laguz.
package models

import (
	"strings"
	"time"
)

// RootNoteID is the identifier of the top of the note tree.
const RootNoteID = "root"

// Note types.
const (
	NoteTypeText   = "text"
	NoteTypeCode   = "code"
	NoteTypeSearch = "search"
)

// Attribute types.
const (
	AttributeLabel    = "label"
	AttributeRelation = "relation"
)

// Note is a node in the note graph.
type Note struct {
	ID                 string    `json:"noteId"`
	Title              string    `json:"title"`
	Type               string    `json:"type"`
	Mime               string    `json:"mime,omitempty"`
	Content            string    `json:"-"`
	IsProtected        bool      `json:"isProtected"`
	IsDeleted          bool      `json:"isDeleted"`
	IsContentAvailable bool      `json:"isContentAvailable"`
	ParentIDs          []string  `json:"parentNoteIds"`
	DateCreated        time.Time `json:"dateCreated"`
	DateModified       time.Time `json:"dateModified"`

	// Attributes holds the note's own attributes in insertion order,
	// including soft-deleted ones that still need to be persisted.
	Attributes []*Attribute `json:"attributes"`
	// Inherited holds inheritable attributes collected from ancestors.
	Inherited []*Attribute `json:"-"`
}

// Attribute is a label or relation attached to a note.
// For relations Value holds the target note id.
type Attribute struct {
	ID            string `json:"attributeId"`
	NoteID        string `json:"noteId"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	Value         string `json:"value"`
	Position      int    `json:"position"`
	IsInheritable bool   `json:"isInheritable"`
	IsDeleted     bool   `json:"isDeleted"`
}

// Revision is a stored snapshot of a note.
type Revision struct {
	ID          string    `json:"revisionId"`
	NoteID      string    `json:"noteId"`
	Title       string    `json:"title"`
	DateCreated time.Time `json:"dateCreated"`
}

// NoteMetadata is a lightweight representation of a vault file.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsBackendScript reports whether the note holds JavaScript meant to run on the server.
func (n *Note) IsBackendScript() bool {
	if n.Type != NoteTypeCode {
		return false
	}
	mime := strings.ToLower(n.Mime)
	return strings.HasPrefix(mime, "application/javascript") && strings.Contains(mime, "env=backend")
}

// OwnedLabels returns the live labels named name that belong to the note itself.
func (n *Note) OwnedLabels(name string) []*Attribute {
	return n.owned(AttributeLabel, name)
}

// OwnedRelations returns the live relations named name that belong to the note itself.
func (n *Note) OwnedRelations(name string) []*Attribute {
	return n.owned(AttributeRelation, name)
}

// Labels returns owned labels followed by inherited ones.
func (n *Note) Labels(name string) []*Attribute {
	out := n.owned(AttributeLabel, name)
	for _, a := range n.Inherited {
		if a.Type == AttributeLabel && a.Name == name && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out
}

// Relations returns owned relations followed by inherited ones.
func (n *Note) Relations(name string) []*Attribute {
	out := n.owned(AttributeRelation, name)
	for _, a := range n.Inherited {
		if a.Type == AttributeRelation && a.Name == name && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out
}

// AllAttributes returns every live owned and inherited attribute.
func (n *Note) AllAttributes() []*Attribute {
	out := make([]*Attribute, 0, len(n.Attributes)+len(n.Inherited))
	for _, a := range n.Attributes {
		if !a.IsDeleted {
			out = append(out, a)
		}
	}
	for _, a := range n.Inherited {
		if !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out
}

// HasLabel reports whether the note has a label named name.
func (n *Note) HasLabel(name string) bool {
	return len(n.Labels(name)) > 0
}

// LabelValue returns the value of the first label named name, or "".
func (n *Note) LabelValue(name string) string {
	if l := n.Labels(name); len(l) > 0 {
		return l[0].Value
	}
	return ""
}

// RelationTarget returns the target note id of the first relation named name, or "".
func (n *Note) RelationTarget(name string) string {
	if r := n.Relations(name); len(r) > 0 {
		return r[0].Value
	}
	return ""
}

// SetLabel upserts a single owned label: the first match is updated,
// further matches are soft-deleted, and a new label is added if none exists.
func (n *Note) SetLabel(name, value string) {
	n.setAttribute(AttributeLabel, name, value)
}

// SetRelation upserts a single owned relation pointing at targetID.
func (n *Note) SetRelation(name, targetID string) {
	n.setAttribute(AttributeRelation, name, targetID)
}

// RemoveLabel soft-deletes every owned label named name.
func (n *Note) RemoveLabel(name string) {
	for _, a := range n.OwnedLabels(name) {
		a.IsDeleted = true
	}
}

// RemoveRelation soft-deletes every owned relation named name.
func (n *Note) RemoveRelation(name string) {
	for _, a := range n.OwnedRelations(name) {
		a.IsDeleted = true
	}
}

// SetTitle changes the note title.
func (n *Note) SetTitle(title string) {
	n.Title = title
}

// SetContent replaces the note content.
func (n *Note) SetContent(content string) {
	n.Content = content
}

func (n *Note) owned(typ, name string) []*Attribute {
	var out []*Attribute
	for _, a := range n.Attributes {
		if a.Type == typ && a.Name == name && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out
}

func (n *Note) setAttribute(typ, name, value string) {
	existing := n.owned(typ, name)
	if len(existing) == 0 {
		n.Attributes = append(n.Attributes, &Attribute{
			NoteID:   n.ID,
			Type:     typ,
			Name:     name,
			Value:    value,
			Position: n.nextPosition(),
		})
		return
	}
	existing[0].Value = value
	for _, dup := range existing[1:] {
		dup.IsDeleted = true
	}
}

func (n *Note) nextPosition() int {
	pos := 0
	for _, a := range n.Attributes {
		if a.Position >= pos {
			pos = a.Position + 10
		}
	}
	return pos
}
