package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/testutil"
)

func TestGetNote_HidesDeletedAttributes(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	parent := &models.Note{ID: "p", Title: "Parent"}
	parent.Attributes = append(parent.Attributes, &models.Attribute{
		Type: models.AttributeLabel, Name: "area", Value: "work", IsInheritable: true,
	})
	testutil.CreateNote(t, db, parent)

	n := &models.Note{ID: "n", Title: "Child", ParentIDs: []string{"p"}}
	n.SetLabel("keep", "1")
	n.SetLabel("drop", "1")
	testutil.CreateNote(t, db, n)

	n.RemoveLabel("drop")
	if err := db.SaveNote(ctx, n); err != nil {
		t.Fatal(err)
	}

	detail, err := NewService(db).GetNote(ctx, "n")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(detail.Attributes) != 1 || detail.Attributes[0].Name != "keep" {
		t.Errorf("attributes = %+v", detail.Attributes)
	}
	if len(detail.Inherited) != 1 || detail.Inherited[0].Name != "area" {
		t.Errorf("inherited = %+v", detail.Inherited)
	}
	if detail.Revisions == nil || len(detail.ParentNoteIDs) != 1 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testutil.TestDB(t)
	if _, err := NewService(db).GetNote(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
