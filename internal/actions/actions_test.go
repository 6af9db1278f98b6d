package actions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/laguz/internal/models"
)

type fakeStore struct {
	saved  int
	revs   []models.Revision
	erased []string
}

func (s *fakeStore) SaveNote(_ context.Context, _ *models.Note) error { s.saved++; return nil }

func (s *fakeStore) Revisions(_ context.Context, _ string) ([]models.Revision, error) {
	return s.revs, nil
}

func (s *fakeStore) EraseRevisions(_ context.Context, ids []string) error {
	s.erased = append(s.erased, ids...)
	return nil
}

type fakeEvaluator struct {
	err   error
	calls int
}

func (e *fakeEvaluator) Evaluate(_ context.Context, _ string, n *models.Note) error {
	e.calls++
	if e.err != nil {
		return e.err
	}
	n.SetTitle("scripted")
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

func actionNote(values ...string) *models.Note {
	n := &models.Note{ID: "search", Type: models.NoteTypeSearch}
	for i, v := range values {
		n.Attributes = append(n.Attributes, &models.Attribute{
			Type: models.AttributeLabel, Name: ActionLabel, Value: v, Position: (i + 1) * 10,
		})
	}
	return n
}

func TestParse_DropsMalformedAndUnknown(t *testing.T) {
	n := actionNote(
		`{bad json`,
		`{"name":"unknownKind"}`,
		`{"name":"setLabelValue","labelName":"a","labelValue":"b"}`,
	)
	got := Parse(n, discard())
	if len(got) != 1 {
		t.Fatalf("parsed %d actions, want 1: %+v", len(got), got)
	}
	want := SetLabelValue{LabelName: "a", LabelValue: "b"}
	if got[0] != want {
		t.Errorf("action = %+v, want %+v", got[0], want)
	}
}

func TestParse_KeepsOrderAndValidates(t *testing.T) {
	n := actionNote(
		`{"name":"deleteLabel","labelName":"x"}`,
		`{"name":"deleteLabel"}`,
		`{"name":"renameLabel","oldLabelName":"a","newLabelName":"b"}`,
		`{"name":"executeScript","script":""}`,
		`{"name":"setRelationTarget","relationName":"r"}`,
	)
	got := Parse(n, discard())
	if len(got) != 3 {
		t.Fatalf("parsed %d actions, want 3: %+v", len(got), got)
	}
	kinds := []string{got[0].Kind(), got[1].Kind(), got[2].Kind()}
	want := []string{KindDeleteLabel, KindRenameLabel, KindExecuteScript}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds = %v, want %v", kinds, want)
			break
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{`{bad`, ErrMalformed},
		{`[1,2]`, ErrMalformed},
		{`{"name":"nope"}`, ErrUnknownKind},
		{`{}`, ErrUnknownKind},
		{`{"name":"deleteLabel","labelName":5}`, ErrMalformed},
		{`{"name":"renameRelation","oldRelationName":"a"}`, ErrMalformed},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.raw); !errors.Is(err, tt.want) {
			t.Errorf("Decode(%s) err = %v, want %v", tt.raw, err, tt.want)
		}
	}
}

func TestDecode_AllKinds(t *testing.T) {
	raw := map[string]string{
		KindDeleteNote:          `{"name":"deleteNote"}`,
		KindDeleteNoteRevisions: `{"name":"deleteNoteRevisions"}`,
		KindDeleteLabel:         `{"name":"deleteLabel","labelName":"a"}`,
		KindDeleteRelation:      `{"name":"deleteRelation","relationName":"a"}`,
		KindRenameLabel:         `{"name":"renameLabel","oldLabelName":"a","newLabelName":"b"}`,
		KindRenameRelation:      `{"name":"renameRelation","oldRelationName":"a","newRelationName":"b"}`,
		KindSetLabelValue:       `{"name":"setLabelValue","labelName":"a"}`,
		KindSetRelationTarget:   `{"name":"setRelationTarget","relationName":"a","targetNoteId":"n"}`,
		KindExecuteScript:       `{"name":"executeScript","script":"note.setTitle('x')"}`,
	}
	for _, kind := range Kinds {
		a, err := Decode(raw[kind])
		if err != nil {
			t.Errorf("Decode(%s): %v", kind, err)
			continue
		}
		if a.Kind() != kind {
			t.Errorf("Kind() = %q, want %q", a.Kind(), kind)
		}
	}
}

func TestApply_SetLabelValueIdempotent(t *testing.T) {
	store := &fakeStore{}
	r := NewRegistry(store, nil, discard())
	n := &models.Note{ID: "n1"}
	a := SetLabelValue{LabelName: "status", LabelValue: "done"}

	for i := 0; i < 2; i++ {
		if err := r.Apply(context.Background(), a, n); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	labels := n.OwnedLabels("status")
	if len(labels) != 1 || labels[0].Value != "done" {
		t.Errorf("labels = %+v, want exactly one status=done", labels)
	}
	if store.saved != 2 {
		t.Errorf("saved = %d, want 2", store.saved)
	}
}

func TestApply_DeleteLabelRemovesAllOwned(t *testing.T) {
	r := NewRegistry(&fakeStore{}, nil, discard())
	n := &models.Note{ID: "n1"}
	for _, v := range []string{"1", "2", "3"} {
		n.Attributes = append(n.Attributes, &models.Attribute{Type: models.AttributeLabel, Name: "X", Value: v})
	}
	n.Inherited = []*models.Attribute{{Type: models.AttributeLabel, Name: "X", Value: "inherited"}}

	if err := r.Apply(context.Background(), DeleteLabel{LabelName: "X"}, n); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := n.OwnedLabels("X"); len(got) != 0 {
		t.Errorf("owned X labels = %d, want 0", len(got))
	}
	for _, a := range n.Attributes {
		if !a.IsDeleted {
			t.Errorf("label X=%s not soft-deleted", a.Value)
		}
	}
	if n.Inherited[0].IsDeleted {
		t.Error("inherited label must not be touched")
	}
}

func TestApply_RenameAndRelations(t *testing.T) {
	r := NewRegistry(&fakeStore{}, nil, discard())
	ctx := context.Background()
	n := &models.Note{ID: "n1"}
	n.SetLabel("old", "v")
	n.SetRelation("link", "a")

	if err := r.Apply(ctx, RenameLabel{OldLabelName: "old", NewLabelName: "new"}, n); err != nil {
		t.Fatal(err)
	}
	if n.LabelValue("new") != "v" || n.HasLabel("old") {
		t.Errorf("rename failed: %+v", n.Attributes)
	}

	if err := r.Apply(ctx, SetRelationTarget{RelationName: "link", TargetNoteID: "b"}, n); err != nil {
		t.Fatal(err)
	}
	if n.RelationTarget("link") != "b" {
		t.Errorf("link = %q, want b", n.RelationTarget("link"))
	}

	if err := r.Apply(ctx, RenameRelation{OldRelationName: "link", NewRelationName: "ref"}, n); err != nil {
		t.Fatal(err)
	}
	if n.RelationTarget("ref") != "b" {
		t.Errorf("ref = %q, want b", n.RelationTarget("ref"))
	}

	if err := r.Apply(ctx, DeleteRelation{RelationName: "ref"}, n); err != nil {
		t.Fatal(err)
	}
	if len(n.Relations("ref")) != 0 {
		t.Error("relation ref should be deleted")
	}
}

func TestApply_DeleteNoteAndRevisions(t *testing.T) {
	store := &fakeStore{revs: []models.Revision{{ID: "r1"}, {ID: "r2"}}}
	r := NewRegistry(store, nil, discard())
	ctx := context.Background()
	n := &models.Note{ID: "n1"}

	if err := r.Apply(ctx, DeleteNoteRevisions{}, n); err != nil {
		t.Fatal(err)
	}
	if len(store.erased) != 2 {
		t.Errorf("erased = %v, want [r1 r2]", store.erased)
	}

	if err := r.Apply(ctx, DeleteNote{}, n); err != nil {
		t.Fatal(err)
	}
	if !n.IsDeleted || store.saved != 1 {
		t.Errorf("deleted = %v saved = %d", n.IsDeleted, store.saved)
	}
}

func TestApply_ExecuteScript(t *testing.T) {
	store := &fakeStore{}
	eval := &fakeEvaluator{}
	r := NewRegistry(store, eval, discard())
	ctx := context.Background()
	n := &models.Note{ID: "n1"}

	if err := r.Apply(ctx, ExecuteScript{Script: "   "}, n); err != nil {
		t.Fatalf("blank script: %v", err)
	}
	if eval.calls != 0 || store.saved != 0 {
		t.Error("blank script must not run or save")
	}

	if err := r.Apply(ctx, ExecuteScript{Script: "note.setTitle('x')"}, n); err != nil {
		t.Fatal(err)
	}
	if n.Title != "scripted" || store.saved != 1 {
		t.Errorf("title = %q saved = %d", n.Title, store.saved)
	}

	eval.err = errors.New("boom")
	if err := r.Apply(ctx, ExecuteScript{Script: "throw 1"}, n); err == nil {
		t.Error("expected evaluator error to propagate")
	}
	if store.saved != 1 {
		t.Error("failed script must not save")
	}
}
