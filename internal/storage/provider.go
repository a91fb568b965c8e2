// Package storage defines the vault file-system abstraction. Documents are
// Markdown files named <id>.md directly under the vault root; the file
// name stem is the document id used by wikilinks.
package storage

import "github.com/rundberg/ansuz/internal/models"

// Provider is the interface for vault document operations. Implementations
// address documents by id, not by file path.
type Provider interface {
	// List returns metadata for every document in the vault.
	List() ([]models.DocumentMeta, error)
	// Read returns the raw bytes of the document with the given id.
	Read(id string) ([]byte, error)
	// Write atomically writes content for the document with the given id.
	Write(id string, content []byte) error
	// Delete removes the document with the given id.
	Delete(id string) error
}
