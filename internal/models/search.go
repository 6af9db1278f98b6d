package models

// SearchContext controls one query evaluation.
type SearchContext struct {
	FastSearch           bool
	AncestorNoteID       string
	AncestorDepth        string
	IncludeArchivedNotes bool
	OrderBy              string
	OrderDirection       string
	Limit                int
	Debug                bool
	FuzzyAttributeSearch bool
}

// SearchResult is one ranked query match.
type SearchResult struct {
	NoteID string  `json:"noteId"`
	Score  float64 `json:"score"`
}
