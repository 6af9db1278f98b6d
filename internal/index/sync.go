package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/checksum"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/parser"
	"github.com/starford/laguz/internal/storage"
)

// Sync walks the vault and brings the note graph up to date:
//   - new/changed files are parsed and imported
//   - notes whose file disappeared are soft-deleted
func Sync(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if id, _, err := importFile(ctx, db, m.Path, data); err != nil {
			logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: imported", slog.String("path", m.Path), slog.String("note_id", id))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if id, err := db.DeleteBySource(ctx, p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p), slog.String("note_id", id))
			}
		}
	}

	return nil
}

// importFile parses a vault file and writes it into the graph. An existing
// note's previous title and content are kept as a revision when they change.
// It returns the note id and whether the note was newly created.
func importFile(ctx context.Context, db *DB, path string, data []byte) (string, bool, error) {
	res, err := parser.Parse(path, data)
	if err != nil {
		return "", false, err
	}

	existing, err := db.GetNote(ctx, res.ID)
	created := errors.Is(err, apperr.ErrNotFound)
	if err != nil && !created {
		return "", false, err
	}

	n := &models.Note{
		ID:                 res.ID,
		Title:              res.Title,
		Type:               res.Type,
		Mime:               res.Mime,
		Content:            res.Body,
		IsProtected:        res.Protected,
		IsContentAvailable: true,
		ParentIDs:          res.Parents,
	}
	if len(n.ParentIDs) == 0 {
		n.ParentIDs = []string{models.RootNoteID}
	}

	if !created {
		n.DateCreated = existing.DateCreated
		if !existing.IsDeleted && (existing.Title != n.Title || (existing.IsContentAvailable && existing.Content != n.Content)) {
			if _, err := db.SaveRevision(ctx, n.ID); err != nil {
				return "", false, err
			}
		}
		// The file is authoritative: previous owned attributes are replaced.
		for _, a := range existing.Attributes {
			a.IsDeleted = true
			n.Attributes = append(n.Attributes, a)
		}
	}

	pos := 0
	add := func(typ string, attrs []parser.Attr) {
		for _, a := range attrs {
			pos += 10
			n.Attributes = append(n.Attributes, &models.Attribute{
				NoteID:        n.ID,
				Type:          typ,
				Name:          a.Name,
				Value:         a.Value,
				Position:      pos,
				IsInheritable: a.Inheritable,
			})
		}
	}
	add(models.AttributeLabel, res.Labels)
	add(models.AttributeRelation, res.Relations)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := saveNoteTx(ctx, tx, n); err != nil {
		return "", false, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE notes SET source_path = ?, checksum = ? WHERE note_id = ?`,
		path, checksum.Sum(data), n.ID); err != nil {
		return "", false, fmt.Errorf("index: record source: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, err
	}
	return n.ID, created, nil
}

// unchanged reports whether path was last imported with exactly data.
func unchanged(ctx context.Context, db *DB, path string, data []byte) bool {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM notes WHERE source_path = ?`, path).Scan(&cs)
	return err == nil && cs == checksum.Sum(data)
}

// AllChecksums maps the vault path of every imported note to its file checksum.
// Notes soft-deleted by actions are included so an unchanged file does not revive them.
func (db *DB) AllChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT source_path, checksum FROM notes WHERE source_path != ''`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// DeleteBySource soft-deletes the note imported from path, detaches it from
// the file and returns its id.
func (db *DB) DeleteBySource(ctx context.Context, path string) (string, error) {
	var id string
	err := db.conn.QueryRowContext(ctx,
		`SELECT note_id FROM notes WHERE source_path = ?`, path).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("index: lookup source %s: %w", path, err)
	}
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET is_deleted = 1, source_path = '', checksum = '', date_modified = CURRENT_TIMESTAMP WHERE note_id = ?`, id); err != nil {
		return "", fmt.Errorf("index: delete note: %w", err)
	}
	return id, nil
}
