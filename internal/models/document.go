// Package models defines the domain types for Ansuz.
package models

import "time"

// Document represents a single unit of content in the vault: a short
// atomic note or a long-form article. Both live as Markdown files and
// are treated identically by the graph and search core.
type Document struct {
	ID          string                 `json:"id"`
	Content     []byte                 `json:"-"`
	Body        string                 `json:"body"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Links       []string               `json:"links,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Fingerprint string                 `json:"fingerprint"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// DocumentMeta is a lightweight representation returned by list operations.
type DocumentMeta struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Link represents a directed wikilink edge between two documents.
// Links are never authored independently; they are recomputed from the
// source document's body on every change.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
