// Package noteservice coordinates the vault, the SQLite index, and the
// in-memory link graph. It is the write path of the content layer: every
// document mutation flows through here so that derived state (links,
// graph, fingerprints) stays consistent with the bodies on disk.
package noteservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rundberg/ansuz/internal/apperr"
	"github.com/rundberg/ansuz/internal/fingerprint"
	"github.com/rundberg/ansuz/internal/graph"
	"github.com/rundberg/ansuz/internal/index"
	"github.com/rundberg/ansuz/internal/parser"
	"github.com/rundberg/ansuz/internal/storage"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Fingerprint string         `json:"fingerprint"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	BrokenLinks []string       `json:"broken_links"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Fingerprint string    `json:"fingerprint"`
	Tags        []string  `json:"tags"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service coordinates storage, index, and graph operations.
type Service struct {
	store storage.Provider
	db    index.DocumentIndex
	graph *graph.Store
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.DocumentIndex, g *graph.Store) *Service {
	return &Service{store: store, db: db, graph: g}
}

// Graph exposes the link graph store for read-side consumers.
func (s *Service) Graph() *graph.Store {
	return s.graph
}

// GetDocument reads a document from the vault, parses it, and enriches it
// with backlinks and broken links.
func (s *Service) GetDocument(_ context.Context, id string) (*DocumentDetail, error) {
	data, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(id, data)
}

// CreateDocument writes a new document and indexes it.
func (s *Service) CreateDocument(_ context.Context, id string, content []byte) (*DocumentDetail, error) {
	if _, err := s.store.Read(id); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(id, content); err != nil {
		return nil, err
	}
	if err := s.IndexDocument(id, content); err != nil {
		return nil, err
	}
	return s.buildDetail(id, content)
}

// UpdateDocument writes updated content with optimistic concurrency: when
// ifMatch is non-empty it must equal the current content fingerprint.
func (s *Service) UpdateDocument(_ context.Context, id string, content []byte, ifMatch string) (*DocumentDetail, error) {
	existing, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != fingerprint.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(id, content); err != nil {
		return nil, err
	}
	if err := s.IndexDocument(id, content); err != nil {
		return nil, err
	}
	return s.buildDetail(id, content)
}

// DeleteDocument removes a document from the vault, the index, and the
// graph. Its cached embedding goes with the index row.
func (s *Service) DeleteDocument(_ context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	return s.RemoveFromIndex(id)
}

// ListDocuments returns paginated documents with optional tag filter.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, tag, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			ID:          r.ID,
			Title:       r.Title,
			Fingerprint: r.Fingerprint,
			Tags:        nonNilSlice(r.Tags),
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates keyword search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns the documents currently linking to id.
func (s *Service) Backlinks(_ context.Context, id string) []string {
	return s.graph.Backlinks(id)
}

// IndexDocument parses content and updates the index row, the persisted
// link set, and the in-memory graph. Exported so that vault sync and the
// watcher can reuse it.
func (s *Service) IndexDocument(id string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	row := index.DocumentRow{
		ID:          id,
		Title:       res.Title,
		Fingerprint: fingerprint.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		UpdatedAt:   time.Now(),
	}
	if err := s.db.UpsertDocument(row, res.Body, res.Links); err != nil {
		return err
	}
	s.graph.SetDocument(id, res.Title)
	s.graph.SetLinks(id, res.Links)
	return nil
}

// RemoveFromIndex drops a document from the index and the graph without
// touching the vault. The watcher uses it when the file is already gone.
func (s *Service) RemoveFromIndex(id string) error {
	if err := s.db.DeleteDocument(id); err != nil {
		return err
	}
	s.graph.RemoveDocument(id)
	return nil
}

// RebuildGraph reloads the in-memory graph from the persisted index,
// used once at startup after the vault sync.
func (s *Service) RebuildGraph() error {
	docs, err := s.db.AllDocuments()
	if err != nil {
		return err
	}
	links, err := s.db.AllLinks()
	if err != nil {
		return err
	}

	bySource := make(map[string][]string)
	for _, l := range links {
		bySource[l.Source] = append(bySource[l.Source], l.Target)
	}
	for _, d := range docs {
		s.graph.SetDocument(d.ID, d.Title)
		s.graph.SetLinks(d.ID, bySource[d.ID])
	}
	return nil
}

// buildDetail constructs a DocumentDetail from raw data without re-reading
// the file.
func (s *Service) buildDetail(id string, data []byte) (*DocumentDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{
		ID:          id,
		Title:       res.Title,
		Content:     string(data),
		Fingerprint: fingerprint.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(s.graph.Backlinks(id)),
		BrokenLinks: nonNilSlice(s.graph.BrokenLinks(id)),
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
