package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rundberg/ansuz/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	ID          string
	Title       string
	Fingerprint string
	Tags        []string
	UpdatedAt   time.Time
}

// SearchResult represents one keyword-search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document row, its FTS entry, and
// its outbound links within one transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(d.Tags)

	// Upsert documents table (includes body for fallback search and
	// embedding generation).
	_, err = tx.Exec(`
		INSERT INTO documents (id, title, fingerprint, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			fingerprint = excluded.fingerprint,
			tags        = excluded.tags,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, d.ID, d.Title, d.Fingerprint, string(tagsJSON), body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.ID, d.Title, body, d.Tags); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, d.ID)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(d.ID, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry, its outbound links,
// and its cached embedding.
func (db *DB) DeleteDocument(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, id)
	_, _ = tx.Exec(`DELETE FROM embeddings WHERE doc_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM documents WHERE id = ?`, id)

	return tx.Commit()
}

// GetDocument returns one document row, or nil when absent.
func (db *DB) GetDocument(id string) (*DocumentRow, error) {
	var (
		d        DocumentRow
		tagsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT id, title, fingerprint, tags, updated_at FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.Title, &d.Fingerprint, &tagsJSON, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
	return &d, nil
}

// GetBody returns the stored body of a document, or empty string if absent.
func (db *DB) GetBody(id string) (string, error) {
	var body string
	err := db.conn.QueryRow(`SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get body: %w", err)
	}
	return body, nil
}

// GetFingerprint returns the stored fingerprint for a document, or empty
// string if not found.
func (db *DB) GetFingerprint(id string) (string, error) {
	var fp string
	err := db.conn.QueryRow(`SELECT fingerprint FROM documents WHERE id = ?`, id).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get fingerprint: %w", err)
	}
	return fp, nil
}

// AllFingerprints returns id -> fingerprint for every indexed document.
func (db *DB) AllFingerprints() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, fingerprint FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all fingerprints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, fp string
		if err := rows.Scan(&id, &fp); err != nil {
			return nil, err
		}
		out[id] = fp
	}
	return out, rows.Err()
}

// AllDocuments returns every document row (without bodies).
func (db *DB) AllDocuments() ([]DocumentRow, error) {
	rows, err := db.conn.Query(`SELECT id, title, fingerprint, tags, updated_at FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var (
			d        DocumentRow
			tagsJSON string
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.Fingerprint, &tagsJSON, &d.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
		out = append(out, d)
	}
	return out, rows.Err()
}

// AllLinks returns every persisted edge, used to rebuild the in-memory
// graph at startup.
func (db *DB) AllLinks() ([]models.Link, error) {
	rows, err := db.conn.Query(`SELECT source, target FROM links`)
	if err != nil {
		return nil, fmt.Errorf("index: all links: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Source, &l.Target); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListDocuments returns paginated document rows with optional tag filter.
// sort is one of "updated_at" (default), "title", "id".
func (db *DB) ListDocuments(limit, offset int, tag, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	order := "updated_at DESC"
	switch sort {
	case "title":
		order = "title ASC"
	case "id":
		order = "id ASC"
	}

	where := ""
	args := []any{}
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, title, fingerprint, tags, updated_at
		FROM documents %s ORDER BY %s LIMIT ? OFFSET ?`, where, order)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var (
			d        DocumentRow
			tagsJSON string
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.Fingerprint, &tagsJSON, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
		out = append(out, d)
	}
	return out, total, rows.Err()
}
