package index

import (
	"github.com/rundberg/ansuz/internal/embed"
	"github.com/rundberg/ansuz/internal/models"
)

// DocumentIndex defines the interface for index operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string, links []string) error
	DeleteDocument(id string) error
	GetDocument(id string) (*DocumentRow, error)
	GetBody(id string) (string, error)
	GetFingerprint(id string) (string, error)
	AllFingerprints() (map[string]string, error)
	AllDocuments() ([]DocumentRow, error)
	AllLinks() ([]models.Link, error)
	ListDocuments(limit, offset int, tag, sort string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)

	GetEmbedding(id string) (*embed.Record, error)
	AllEmbeddings() (map[string]*embed.Record, error)
	UpsertEmbedding(rec embed.Record) error
	DeleteEmbedding(id string) error

	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
