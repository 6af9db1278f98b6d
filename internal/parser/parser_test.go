package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\nid: todo-list\ntitle: Hello\nparents: [projects]\n---\n# Hello\nBody text.\n")
	r, err := Parse("notes/hello.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != "todo-list" {
		t.Errorf("id = %q, want %q", r.ID, "todo-list")
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if r.Type != "text" {
		t.Errorf("type = %q, want text", r.Type)
	}
	if len(r.Parents) != 1 || r.Parents[0] != "projects" {
		t.Errorf("parents = %v, want [projects]", r.Parents)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse("folder/plain.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != "folder_plain" {
		t.Errorf("id = %q, want folder_plain", r.ID)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse("broken.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Invalid YAML falls back to treating everything as body.
	if r.ID != "broken" || r.Title != "broken" {
		t.Errorf("id/title = %q/%q, want broken/broken", r.ID, r.Title)
	}
	if len(r.Labels) != 0 {
		t.Errorf("expected no labels on invalid YAML, got %v", r.Labels)
	}
}

func TestParse_LabelsKeepDocumentOrder(t *testing.T) {
	input := []byte(`---
type: search
labels:
  searchString: "#todo"
  action:
    - '{"name":"deleteLabel","labelName":"a"}'
    - '{"name":"setLabelValue","labelName":"b","labelValue":"c"}'
  archived:
relations:
  ancestor: projects
inheritable: [archived]
---
`)
	r, err := Parse("search.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Attr{
		{Name: "searchString", Value: "#todo"},
		{Name: "action", Value: `{"name":"deleteLabel","labelName":"a"}`},
		{Name: "action", Value: `{"name":"setLabelValue","labelName":"b","labelValue":"c"}`},
		{Name: "archived", Value: "", Inheritable: true},
	}
	if len(r.Labels) != len(want) {
		t.Fatalf("labels = %+v, want %+v", r.Labels, want)
	}
	for i := range want {
		if r.Labels[i] != want[i] {
			t.Errorf("label[%d] = %+v, want %+v", i, r.Labels[i], want[i])
		}
	}
	if len(r.Relations) != 1 || r.Relations[0].Value != "projects" {
		t.Errorf("relations = %+v", r.Relations)
	}
}

func TestParse_CodeNoteSkipsInlineTags(t *testing.T) {
	input := []byte("---\nmime: application/javascript;env=backend\n---\nconst x = '#notATag'; // [[nope]]\n")
	r, err := Parse("script.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Type != "code" {
		t.Errorf("type = %q, want code", r.Type)
	}
	if len(r.Labels) != 0 || len(r.Relations) != 0 {
		t.Errorf("code note should carry no inline attributes: %+v %+v", r.Labels, r.Relations)
	}
}

func TestParse_InlineTagsAndLinks(t *testing.T) {
	input := []byte("---\nlabels:\n  alpha: one\n---\nSome text #beta and #alpha again, see [[Other Note]].\n")
	r, err := Parse("a.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Labels) != 2 || r.Labels[0].Name != "alpha" || r.Labels[1].Name != "beta" {
		t.Errorf("labels = %+v, want [alpha beta]", r.Labels)
	}
	if len(r.Relations) != 1 || r.Relations[0].Name != InternalLinkRelation || r.Relations[0].Value != "Other Note" {
		t.Errorf("relations = %+v", r.Relations)
	}
}

func TestExtractLinks_Basic(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."
	links := extractLinks(body)
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
	if links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	links := extractLinks("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	title := deriveTitle("FM Title", "# H1 Title\ntext")
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle("", "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
