package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

const noteColumns = `note_id, title, type, mime, content, is_protected, is_deleted, date_created, date_modified`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*models.Note, error) {
	var n models.Note
	if err := row.Scan(&n.ID, &n.Title, &n.Type, &n.Mime, &n.Content,
		&n.IsProtected, &n.IsDeleted, &n.DateCreated, &n.DateModified); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNote loads a note with its owned and inherited attributes.
// Soft-deleted notes are returned with IsDeleted set; a missing note yields apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE note_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	if n.Attributes, err = db.attributesOf(ctx, []string{id}, false); err != nil {
		return nil, err
	}
	if n.ParentIDs, err = db.parentsOf(ctx, id); err != nil {
		return nil, err
	}
	ancestors, err := db.Ancestors(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(ancestors) > 0 {
		if n.Inherited, err = db.attributesOf(ctx, ancestors, true); err != nil {
			return nil, err
		}
	}
	db.markContentAvailability(n)
	return n, nil
}

// CreateNote inserts a new note. It fails with apperr.ErrAlreadyExists when the id is taken.
func (db *DB) CreateNote(ctx context.Context, n *models.Note) error {
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	var exists int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE note_id = ?`, n.ID).Scan(&exists)
	if err == nil {
		return apperr.ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("index: create note: %w", err)
	}
	if n.DateCreated.IsZero() {
		n.DateCreated = time.Now().UTC()
	}
	if len(n.ParentIDs) == 0 {
		n.ParentIDs = []string{models.RootNoteID}
	}
	return db.SaveNote(ctx, n)
}

// SaveNote persists the note row, its parent branches and every owned
// attribute in one transaction. Attributes without an id are inserted with a new ULID.
func (db *DB) SaveNote(ctx context.Context, n *models.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := saveNoteTx(ctx, tx, n); err != nil {
		return err
	}
	return tx.Commit()
}

func saveNoteTx(ctx context.Context, tx *sql.Tx, n *models.Note) error {
	now := time.Now().UTC()
	if n.DateCreated.IsZero() {
		n.DateCreated = now
	}
	n.DateModified = now
	// A protected note loaded without a protected session carries blanked
	// content that must not overwrite the stored one.
	writeContent := !n.IsProtected || n.IsContentAvailable

	_, err := tx.ExecContext(ctx, `
		INSERT INTO notes (note_id, title, type, mime, content, is_protected, is_deleted, date_created, date_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET
			title         = excluded.title,
			type          = excluded.type,
			mime          = excluded.mime,
			content       = CASE WHEN ? THEN excluded.content ELSE notes.content END,
			is_protected  = excluded.is_protected,
			is_deleted    = excluded.is_deleted,
			date_modified = excluded.date_modified
	`, n.ID, n.Title, n.Type, n.Mime, n.Content, n.IsProtected, n.IsDeleted, n.DateCreated, n.DateModified, writeContent)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// Protected content is never written to the full-text table.
	indexed := n.Content
	if n.IsProtected {
		indexed = ""
	}
	if err := ftsUpsert(tx, n.ID, n.Title, indexed); err != nil {
		return err
	}

	if n.ID != models.RootNoteID {
		if _, err := tx.ExecContext(ctx, `DELETE FROM branches WHERE note_id = ?`, n.ID); err != nil {
			return fmt.Errorf("index: clear branches: %w", err)
		}
		for _, parent := range n.ParentIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO branches (note_id, parent_note_id) VALUES (?, ?)`, n.ID, parent); err != nil {
				return fmt.Errorf("index: insert branch: %w", err)
			}
		}
	}

	for _, a := range n.Attributes {
		if a.ID == "" {
			a.ID = ulid.Make().String()
		}
		a.NoteID = n.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attributes (attribute_id, note_id, type, name, value, position, is_inheritable, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(attribute_id) DO UPDATE SET
				name           = excluded.name,
				value          = excluded.value,
				position       = excluded.position,
				is_inheritable = excluded.is_inheritable,
				is_deleted     = excluded.is_deleted
		`, a.ID, a.NoteID, a.Type, a.Name, a.Value, a.Position, a.IsInheritable, a.IsDeleted)
		if err != nil {
			return fmt.Errorf("index: upsert attribute %s: %w", a.Name, err)
		}
	}
	return nil
}

// SaveRevision snapshots the note's current title and content.
func (db *DB) SaveRevision(ctx context.Context, noteID string) (*models.Revision, error) {
	rev := &models.Revision{ID: ulid.Make().String(), NoteID: noteID, DateCreated: time.Now().UTC()}
	var content string
	err := db.conn.QueryRowContext(ctx, `SELECT title, content FROM notes WHERE note_id = ?`, noteID).
		Scan(&rev.Title, &content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("index: read note for revision: %w", err)
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO revisions (revision_id, note_id, title, content, date_created) VALUES (?, ?, ?, ?, ?)`,
		rev.ID, rev.NoteID, rev.Title, content, rev.DateCreated)
	if err != nil {
		return nil, fmt.Errorf("index: insert revision: %w", err)
	}
	return rev, nil
}

// Revisions returns every revision of a note, oldest first.
func (db *DB) Revisions(ctx context.Context, noteID string) ([]models.Revision, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT revision_id, note_id, title, date_created FROM revisions WHERE note_id = ? ORDER BY date_created, revision_id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("index: revisions: %w", err)
	}
	defer rows.Close()

	var out []models.Revision
	for rows.Next() {
		var r models.Revision
		if err := rows.Scan(&r.ID, &r.NoteID, &r.Title, &r.DateCreated); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EraseRevisions hard-deletes the given revisions.
func (db *DB) EraseRevisions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `DELETE FROM revisions WHERE revision_id IN (` + placeholders(len(ids)) + `)`
	if _, err := db.conn.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("index: erase revisions: %w", err)
	}
	return nil
}

// Ancestors returns the ids of every ancestor of the note, nearest first.
func (db *DB) Ancestors(ctx context.Context, id string) ([]string, error) {
	seen := map[string]struct{}{id: {}}
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		parents, err := db.parentsOf(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	return out, nil
}

// AllNotes loads every live note with owned attributes and parents.
// Inherited attributes are resolved in memory.
func (db *DB) AllNotes(ctx context.Context) (map[string]*models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE is_deleted = 0`)
	if err != nil {
		return nil, fmt.Errorf("index: all notes: %w", err)
	}
	notes := make(map[string]*models.Note)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		db.markContentAvailability(n)
		notes[n.ID] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attrRows, err := db.conn.QueryContext(ctx, `
		SELECT attribute_id, note_id, type, name, value, position, is_inheritable, is_deleted
		FROM attributes WHERE is_deleted = 0 ORDER BY note_id, position, rowid`)
	if err != nil {
		return nil, fmt.Errorf("index: all attributes: %w", err)
	}
	for attrRows.Next() {
		a, err := scanAttribute(attrRows)
		if err != nil {
			attrRows.Close()
			return nil, err
		}
		if n, ok := notes[a.NoteID]; ok {
			n.Attributes = append(n.Attributes, a)
		}
	}
	attrRows.Close()
	if err := attrRows.Err(); err != nil {
		return nil, err
	}

	branchRows, err := db.conn.QueryContext(ctx, `SELECT note_id, parent_note_id FROM branches ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("index: all branches: %w", err)
	}
	for branchRows.Next() {
		var child, parent string
		if err := branchRows.Scan(&child, &parent); err != nil {
			branchRows.Close()
			return nil, err
		}
		if n, ok := notes[child]; ok {
			n.ParentIDs = append(n.ParentIDs, parent)
		}
	}
	branchRows.Close()
	if err := branchRows.Err(); err != nil {
		return nil, err
	}

	for _, n := range notes {
		n.Inherited = inheritedFrom(n, notes)
	}
	return notes, nil
}

// inheritedFrom walks ancestors breadth-first and collects their inheritable attributes.
func inheritedFrom(n *models.Note, notes map[string]*models.Note) []*models.Attribute {
	var out []*models.Attribute
	seen := map[string]struct{}{n.ID: {}}
	queue := append([]string(nil), n.ParentIDs...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		p, ok := notes[id]
		if !ok {
			continue
		}
		for _, a := range p.Attributes {
			if a.IsInheritable {
				out = append(out, a)
			}
		}
		queue = append(queue, p.ParentIDs...)
	}
	return out
}

func (db *DB) attributesOf(ctx context.Context, noteIDs []string, inheritableOnly bool) ([]*models.Attribute, error) {
	args := make([]any, len(noteIDs))
	for i, id := range noteIDs {
		args[i] = id
	}
	q := `SELECT attribute_id, note_id, type, name, value, position, is_inheritable, is_deleted
		FROM attributes WHERE is_deleted = 0 AND note_id IN (` + placeholders(len(noteIDs)) + `)`
	if inheritableOnly {
		q += ` AND is_inheritable = 1`
	}
	q += ` ORDER BY position, rowid`
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: attributes: %w", err)
	}
	defer rows.Close()

	var out []*models.Attribute
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if inheritableOnly {
		// Keep the nearest-ancestor-first order of noteIDs.
		order := make(map[string]int, len(noteIDs))
		for i, id := range noteIDs {
			order[id] = i
		}
		sorted := make([]*models.Attribute, 0, len(out))
		for i := range noteIDs {
			for _, a := range out {
				if order[a.NoteID] == i {
					sorted = append(sorted, a)
				}
			}
		}
		out = sorted
	}
	return out, nil
}

func scanAttribute(row scanner) (*models.Attribute, error) {
	var a models.Attribute
	if err := row.Scan(&a.ID, &a.NoteID, &a.Type, &a.Name, &a.Value, &a.Position, &a.IsInheritable, &a.IsDeleted); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) parentsOf(ctx context.Context, id string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT parent_note_id FROM branches WHERE note_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("index: parents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (db *DB) markContentAvailability(n *models.Note) {
	n.IsContentAvailable = !n.IsProtected || db.protected.Load()
	if !n.IsContentAvailable {
		n.Content = ""
	}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
