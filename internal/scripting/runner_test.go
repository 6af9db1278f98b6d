package scripting

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/laguz/internal/models"
)

func testRunner(timeout time.Duration) *Runner {
	return NewRunner(timeout, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func scriptNote(body string) *models.Note {
	return &models.Note{
		ID:                 "script",
		Type:               models.NoteTypeCode,
		Mime:               "application/javascript;env=backend",
		Content:            body,
		IsContentAvailable: true,
	}
}

func TestExecuteNote_ReturnsStrings(t *testing.T) {
	r := testRunner(time.Second)
	origin := &models.Note{ID: "search", Title: "My search"}
	origin.SetLabel("prefix", "n")

	got, err := r.ExecuteNote(context.Background(),
		scriptNote(`const p = api.originEntity.getLabelValue("prefix"); api.log("hi"); return [p + "1", p + "2"];`),
		origin)
	if err != nil {
		t.Fatalf("ExecuteNote: %v", err)
	}
	arr, ok := got.([]any)
	if !ok || len(arr) != 2 || arr[0] != "n1" || arr[1] != "n2" {
		t.Errorf("result = %#v, want [n1 n2]", got)
	}
}

func TestExecuteNote_ReturnsObjects(t *testing.T) {
	r := testRunner(time.Second)
	got, err := r.ExecuteNote(context.Background(),
		scriptNote(`return [{noteId: "a"}, {noteId: "b", score: 1}];`), &models.Note{ID: "o"})
	if err != nil {
		t.Fatalf("ExecuteNote: %v", err)
	}
	arr, ok := got.([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("result = %#v", got)
	}
	m, ok := arr[1].(map[string]any)
	if !ok || m["noteId"] != "b" {
		t.Errorf("second element = %#v", arr[1])
	}
}

func TestExecuteNote_OriginIsReadOnly(t *testing.T) {
	r := testRunner(time.Second)
	origin := &models.Note{ID: "o", Title: "Original"}
	got, err := r.ExecuteNote(context.Background(), scriptNote(`
		"use strict";
		try { api.originEntity.title = "changed"; } catch (e) { return "blocked"; }
		return typeof api.originEntity.setTitle;
	`), origin)
	if err != nil {
		t.Fatalf("ExecuteNote: %v", err)
	}
	if got != "blocked" {
		t.Errorf("result = %#v, want blocked", got)
	}
	if origin.Title != "Original" {
		t.Errorf("origin title changed to %q", origin.Title)
	}
}

func TestExecuteNote_NotExecutable(t *testing.T) {
	r := testRunner(time.Second)
	n := scriptNote("return 1")
	n.Mime = "application/javascript;env=frontend"
	if _, err := r.ExecuteNote(context.Background(), n, nil); !errors.Is(err, ErrNotExecutable) {
		t.Errorf("err = %v, want ErrNotExecutable", err)
	}
}

func TestExecuteNote_Timeout(t *testing.T) {
	r := testRunner(50 * time.Millisecond)
	_, err := r.ExecuteNote(context.Background(), scriptNote(`while (true) {}`), nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestExecuteNote_Cancelled(t *testing.T) {
	r := testRunner(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := r.ExecuteNote(ctx, scriptNote(`while (true) {}`), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEvaluate_MutatesNote(t *testing.T) {
	r := testRunner(time.Second)
	n := &models.Note{ID: "n1", Title: "Before"}
	n.SetLabel("old", "x")

	err := r.Evaluate(context.Background(), `
		note.setTitle(note.title + " after");
		note.setLabel("status", "done");
		note.removeLabel("old");
		note.setRelation("owner", "alice");
	`, n)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if n.Title != "Before after" {
		t.Errorf("title = %q", n.Title)
	}
	if n.LabelValue("status") != "done" || n.HasLabel("old") {
		t.Errorf("labels = %+v", n.Attributes)
	}
	if n.RelationTarget("owner") != "alice" {
		t.Errorf("owner = %q", n.RelationTarget("owner"))
	}
}

func TestEvaluate_NoHostAccess(t *testing.T) {
	r := testRunner(time.Second)
	n := &models.Note{ID: "n1"}
	for _, src := range []string{`require("fs")`, `api.log("x")`} {
		if err := r.Evaluate(context.Background(), src, n); err == nil {
			t.Errorf("Evaluate(%q) should fail", src)
		}
	}
}

func TestEvaluate_ScriptError(t *testing.T) {
	r := testRunner(time.Second)
	if err := r.Evaluate(context.Background(), `throw new Error("boom")`, &models.Note{ID: "n1"}); err == nil {
		t.Error("expected error from throwing script")
	}
}
