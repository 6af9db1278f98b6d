package actions

import (
	"log/slog"

	"github.com/starford/laguz/internal/models"
)

// ActionLabel is the label name whose values hold action JSON.
const ActionLabel = "action"

// Parse decodes every action label of note in insertion order. Entries that
// are not valid JSON, name an unknown kind or fail validation are logged and
// dropped; the rest are returned.
func Parse(note *models.Note, logger *slog.Logger) []Action {
	var out []Action
	for _, l := range note.Labels(ActionLabel) {
		a, err := Decode(l.Value)
		if err != nil {
			logger.Warn("actions: dropping action",
				slog.String("note_id", note.ID),
				slog.String("value", l.Value),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, a)
	}
	return out
}
