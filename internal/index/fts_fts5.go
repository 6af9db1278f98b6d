//go:build sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			note_id UNINDEXED,
			title,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, noteID, title, content string) error {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE note_id = ?`, noteID)
	_, err := tx.Exec(`INSERT INTO notes_fts (note_id, title, content) VALUES (?, ?, ?)`, noteID, title, content)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

// SearchContent returns the ids of live notes whose indexed content matches term.
// Protected content is never indexed, so no session check is needed here.
func (db *DB) SearchContent(ctx context.Context, term string) (map[string]struct{}, error) {
	phrase := `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.note_id
		FROM notes_fts f
		JOIN notes n ON n.note_id = f.note_id
		WHERE notes_fts MATCH ? AND n.is_deleted = 0
	`, "content:"+phrase)
	if err != nil {
		return nil, fmt.Errorf("index: search content: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
