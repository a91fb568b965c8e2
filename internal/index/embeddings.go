package index

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/rundberg/ansuz/internal/embed"
)

// GetEmbedding returns the cached embedding record for a document, or nil
// when none exists. Validity against the current model and fingerprint is
// the caller's concern (embed.Classify).
func (db *DB) GetEmbedding(id string) (*embed.Record, error) {
	var (
		rec  embed.Record
		blob []byte
	)
	err := db.conn.QueryRow(`
		SELECT doc_id, vector, model_id, model_version, fingerprint, generated_at
		FROM embeddings WHERE doc_id = ?
	`, id).Scan(&rec.DocID, &blob, &rec.ModelID, &rec.ModelVersion, &rec.Fingerprint, &rec.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get embedding: %w", err)
	}
	rec.Vector = decodeVector(blob)
	return &rec, nil
}

// AllEmbeddings returns every cached record keyed by document id. This is
// the bulk path the search engine depends on: one query instead of one
// generation call per document.
func (db *DB) AllEmbeddings() (map[string]*embed.Record, error) {
	rows, err := db.conn.Query(`
		SELECT doc_id, vector, model_id, model_version, fingerprint, generated_at
		FROM embeddings
	`)
	if err != nil {
		return nil, fmt.Errorf("index: all embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*embed.Record)
	for rows.Next() {
		var (
			rec  embed.Record
			blob []byte
		)
		if err := rows.Scan(&rec.DocID, &blob, &rec.ModelID, &rec.ModelVersion, &rec.Fingerprint, &rec.GeneratedAt); err != nil {
			return nil, err
		}
		rec.Vector = decodeVector(blob)
		out[rec.DocID] = &rec
	}
	return out, rows.Err()
}

// UpsertEmbedding atomically inserts or replaces a document's record.
// Readers observe either the old or the new record, never a mix of
// fields from two generations.
func (db *DB) UpsertEmbedding(rec embed.Record) error {
	_, err := db.conn.Exec(`
		INSERT INTO embeddings (doc_id, vector, model_id, model_version, fingerprint, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			vector        = excluded.vector,
			model_id      = excluded.model_id,
			model_version = excluded.model_version,
			fingerprint   = excluded.fingerprint,
			generated_at  = excluded.generated_at
	`, rec.DocID, encodeVector(rec.Vector), rec.ModelID, rec.ModelVersion, rec.Fingerprint, rec.GeneratedAt)
	if err != nil {
		return fmt.Errorf("index: upsert embedding: %w", err)
	}
	return nil
}

// DeleteEmbedding removes a document's cached record.
func (db *DB) DeleteEmbedding(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM embeddings WHERE doc_id = ?`, id); err != nil {
		return fmt.Errorf("index: delete embedding: %w", err)
	}
	return nil
}

// encodeVector packs a float32 slice as little-endian bytes for BLOB storage.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks little-endian bytes back into a float32 slice.
func decodeVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}
