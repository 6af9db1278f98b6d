//go:build !sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; content search uses LIKE on the notes.content column.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string) error {
	// Content is already stored in the notes table; nothing extra to do.
	return nil
}

// SearchContent returns the ids of live notes whose readable content contains term.
func (db *DB) SearchContent(ctx context.Context, term string) (map[string]struct{}, error) {
	like := "%" + term + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT note_id
		FROM notes
		WHERE is_deleted = 0
		  AND (is_protected = 0 OR ?)
		  AND content LIKE ?
	`, db.protected.Load(), like)
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
