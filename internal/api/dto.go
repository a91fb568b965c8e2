package api

import (
	"time"

	"github.com/rundberg/ansuz/internal/graph"
	"github.com/rundberg/ansuz/internal/noteservice"
	"github.com/rundberg/ansuz/internal/search"
	"github.com/rundberg/ansuz/internal/syncer"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	ID      string `json:"id" example:"project-ideas" validate:"required"`
	Content string `json:"content" example:"# Ideas\nSee [[reading-list]]" validate:"required"`
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// SemanticSearchRequest is the request body for semantic search.
type SemanticSearchRequest struct {
	Query string `json:"query" example:"notes about distributed consensus" validate:"required"`
	TopK  int    `json:"top_k" example:"10"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = noteservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = noteservice.DocumentListItem

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single full-text search hit in the API response.
type SearchResult struct {
	ID      string `json:"id" example:"project-ideas" validate:"required"`
	Title   string `json:"title" example:"Ideas" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// SemanticSearchResponse wraps semantic search results.
type SemanticSearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
	Count   int             `json:"count" example:"10" validate:"required"`
}

// GraphResponse wraps a graph view.
type GraphResponse struct {
	Nodes []graph.Node `json:"nodes" validate:"required"`
	Edges []graph.Edge `json:"edges" validate:"required"`
}

// BacklinksResponse lists the documents linking to a document.
type BacklinksResponse struct {
	Backlinks []string `json:"backlinks" validate:"required"`
}

// SyncResponse reports the outcome of an embedding sync pass (aliased from the syncer).
type SyncResponse = syncer.Summary

// DocumentListItemDTO mirrors DocumentListItem for swag.
type DocumentListItemDTO struct {
	ID          string    `json:"id" example:"project-ideas"`
	Title       string    `json:"title" example:"Ideas"`
	Fingerprint string    `json:"fingerprint" example:"abc123..."`
	Tags        []string  `json:"tags" example:"tag1,tag2"`
	UpdatedAt   time.Time `json:"updated_at"`
}
