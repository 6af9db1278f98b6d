package search

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/laguz/internal/index"
	"github.com/starford/laguz/internal/models"
)

func TestFormatAttrForSearch(t *testing.T) {
	tests := []struct {
		name         string
		attr         models.Attribute
		includeValue bool
		want         string
	}{
		{"label name only", models.Attribute{Type: models.AttributeLabel, Name: "todo", Value: "x"}, false, "#todo"},
		{"relation name only", models.Attribute{Type: models.AttributeRelation, Name: "owner", Value: "abc"}, false, "~owner"},
		{"empty value", models.Attribute{Type: models.AttributeLabel, Name: "todo"}, true, "#todo"},
		{"plain value", models.Attribute{Type: models.AttributeLabel, Name: "status", Value: "in-progress_2"}, true, "#status=in-progress_2"},
		{"unicode word", models.Attribute{Type: models.AttributeLabel, Name: "city", Value: "Zürich"}, true, "#city=Zürich"},
		{"relation by id", models.Attribute{Type: models.AttributeRelation, Name: "owner", Value: "abc123"}, true, "~owner.noteId=abc123"},
		{"space", models.Attribute{Type: models.AttributeLabel, Name: "t", Value: "a b"}, true, `#t="a b"`},
		{"double quote", models.Attribute{Type: models.AttributeLabel, Name: "t", Value: `say "hi"`}, true, `#t='say "hi"'`},
		{"both quotes", models.Attribute{Type: models.AttributeLabel, Name: "t", Value: `it's "x"`}, true, "#t=`it's \"x\"`"},
		{"all quotes", models.Attribute{Type: models.AttributeLabel, Name: "t", Value: "a\"b'c`d"}, true, `#t="a\"b'c` + "`" + `d"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatAttrForSearch(tt.attr, tt.includeValue)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatAttrForSearch_UnknownType(t *testing.T) {
	if _, err := FormatAttrForSearch(models.Attribute{Type: "tag", Name: "x"}, false); err == nil {
		t.Error("expected error for unknown attribute type")
	}
}

// The formatted fragment must find the note carrying the attribute.
func TestFormatAttrForSearch_RoundTrip(t *testing.T) {
	f, err := os.CreateTemp("", "laguz-search-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	engine := index.NewEngine(db, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	values := []string{
		"plain",
		"two words",
		`say "hi"`,
		`it's "x"`,
		"a\"b'c`d",
		`back\slash`,
		"#not a label = x",
		`C:\Users\`,
		`"quoted\`,
		"Zürich",
	}
	for i, v := range values {
		n := &models.Note{ID: "n" + string(rune('a'+i)), Title: "note", Type: models.NoteTypeText, IsContentAvailable: true}
		n.SetLabel("probe", v)
		if err := db.CreateNote(ctx, n); err != nil {
			t.Fatalf("CreateNote: %v", err)
		}
	}

	for i, v := range values {
		frag, err := FormatAttrForSearch(models.Attribute{Type: models.AttributeLabel, Name: "probe", Value: v}, true)
		if err != nil {
			t.Fatalf("format %q: %v", v, err)
		}
		res, err := engine.FindNotesWithQuery(ctx, frag, models.SearchContext{FastSearch: true})
		if err != nil {
			t.Errorf("query %s: %v", frag, err)
			continue
		}
		want := "n" + string(rune('a'+i))
		if len(res) != 1 || res[0].NoteID != want {
			t.Errorf("query %s = %+v, want only %s", frag, res, want)
		}
	}
}
