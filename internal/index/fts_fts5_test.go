//go:build sqlite_fts5

package index

import (
	"context"
	"testing"

	"github.com/starford/laguz/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchContent(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, &models.Note{ID: "fts", Title: "FTS Note", Content: "Laguz provides powerful full-text search capabilities."})

	hits, err := db.SearchContent(context.Background(), "powerful")
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if _, ok := hits["fts"]; !ok || len(hits) != 1 {
		t.Errorf("hits = %v, want only fts", hits)
	}
}

func TestFTS5_DeletedNoteExcluded(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := mustCreate(t, db, &models.Note{ID: "gone", Title: "Gone", Content: "vanishing content"})
	n.IsDeleted = true
	if err := db.SaveNote(ctx, n); err != nil {
		t.Fatal(err)
	}

	hits, _ := db.SearchContent(ctx, "vanishing")
	if _, ok := hits["gone"]; ok {
		t.Error("deleted note still matched")
	}
}

func TestFTS5_SaveReplacesContent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := mustCreate(t, db, &models.Note{ID: "evo", Title: "Old", Content: "original text"})
	n.SetContent("replacement text")
	if err := db.SaveNote(ctx, n); err != nil {
		t.Fatal(err)
	}

	if hits, _ := db.SearchContent(ctx, "original"); len(hits) != 0 {
		t.Error("old FTS content should be gone")
	}
	if hits, _ := db.SearchContent(ctx, "replacement"); len(hits) != 1 {
		t.Errorf("FTS not updated: %v", hits)
	}
}

func TestFTS5_ProtectedContentNotIndexed(t *testing.T) {
	db := testDB(t)
	mustCreate(t, db, &models.Note{ID: "secret", Title: "Secret", Content: "classified words", IsProtected: true})
	db.SetProtectedSession(true)

	if hits, _ := db.SearchContent(context.Background(), "classified"); len(hits) != 0 {
		t.Errorf("protected content indexed: %v", hits)
	}
}
