// Package storage defines the read-only vault file-system abstraction the
// importer reads from. The graph never writes back to the vault.
package storage

import "github.com/starford/laguz/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
}
