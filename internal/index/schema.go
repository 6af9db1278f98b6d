// Package index provides the SQLite-backed note graph: notes, attributes,
// branches and revisions, plus the query engine that evaluates search strings.
package index

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	note_id       TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL DEFAULT 'text',
	mime          TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	is_protected  INTEGER NOT NULL DEFAULT 0,
	is_deleted    INTEGER NOT NULL DEFAULT 0,
	source_path   TEXT NOT NULL DEFAULT '',
	checksum      TEXT NOT NULL DEFAULT '',
	date_created  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	date_modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attributes (
	attribute_id   TEXT PRIMARY KEY,
	note_id        TEXT NOT NULL,
	type           TEXT NOT NULL,
	name           TEXT NOT NULL,
	value          TEXT NOT NULL DEFAULT '',
	position       INTEGER NOT NULL DEFAULT 0,
	is_inheritable INTEGER NOT NULL DEFAULT 0,
	is_deleted     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS branches (
	note_id        TEXT NOT NULL,
	parent_note_id TEXT NOT NULL,
	UNIQUE(note_id, parent_note_id)
);

CREATE TABLE IF NOT EXISTS revisions (
	revision_id  TEXT PRIMARY KEY,
	note_id      TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	date_created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_attributes_note ON attributes(note_id);
CREATE INDEX IF NOT EXISTS idx_attributes_name ON attributes(type, name);
CREATE INDEX IF NOT EXISTS idx_branches_parent ON branches(parent_note_id);
CREATE INDEX IF NOT EXISTS idx_revisions_note ON revisions(note_id);
CREATE INDEX IF NOT EXISTS idx_notes_source ON notes(source_path);

INSERT OR IGNORE INTO notes (note_id, title, type) VALUES ('root', 'root', 'text');
`

// DB wraps a sql.DB with note graph operations.
type DB struct {
	conn *sql.DB
	// protected reports whether a protected session is active, i.e. whether
	// the content of protected notes may be read.
	protected atomic.Bool
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// SetProtectedSession toggles access to protected note content.
func (db *DB) SetProtectedSession(active bool) {
	db.protected.Store(active)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
