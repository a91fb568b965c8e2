// Package search ranks documents against a natural-language query by
// embedding similarity. Precomputed vectors do the heavy lifting; any
// document the sync has not reached yet is embedded on demand, so it
// stays searchable at the cost of latency proportional to the uncached
// fraction only.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/rundberg/ansuz/internal/apperr"
	"github.com/rundberg/ansuz/internal/embed"
	"github.com/rundberg/ansuz/internal/index"
)

// Result is one ranked hit.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Engine executes semantic searches over the indexed corpus.
type Engine struct {
	db       index.DocumentIndex
	provider embed.Provider
	logger   *slog.Logger
	timeout  time.Duration
}

// NewEngine creates a search engine. timeout bounds the query-side
// embedding call; values <= 0 fall back to 30s.
func NewEngine(db index.DocumentIndex, provider embed.Provider, logger *slog.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{db: db, provider: provider, logger: logger, timeout: timeout}
}

// Search returns up to topK documents ranked by cosine similarity to
// query, scores descending, ties broken by id ascending. An unreachable
// embedding service is the one hard error: it wraps
// apperr.ErrEmbeddingUnavailable. An empty corpus or topK <= 0 simply
// yields no results.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		return []Result{}, nil
	}

	docs, err := e.db.AllDocuments()
	if err != nil {
		return nil, fmt.Errorf("search: list documents: %w", err)
	}
	if len(docs) == 0 {
		return []Result{}, nil
	}

	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	queryVec, err := e.provider.Embed(qctx, query)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w: %w", apperr.ErrEmbeddingUnavailable, err)
	}

	recs, err := e.db.AllEmbeddings()
	if err != nil {
		return nil, fmt.Errorf("search: load embeddings: %w", err)
	}

	results := make([]Result, 0, len(docs))
	for _, d := range docs {
		vec, ok := e.resolve(ctx, d, recs[d.ID])
		if !ok {
			continue
		}
		results = append(results, Result{ID: d.ID, Score: Cosine(queryVec, vec)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// resolve returns a usable vector for the document: the cached one when
// valid, otherwise a freshly generated one written back to the store.
// Fallback failures drop the document from this search only.
func (e *Engine) resolve(ctx context.Context, d index.DocumentRow, rec *embed.Record) ([]float32, bool) {
	modelID := e.provider.ModelID()
	modelVersion := e.provider.ModelVersion()

	if embed.Classify(rec, modelID, modelVersion, d.Fingerprint) == embed.StateValid {
		return rec.Vector, true
	}

	body, err := e.db.GetBody(d.ID)
	if err != nil {
		e.logger.Warn("search: fallback body read failed",
			slog.String("id", d.ID), slog.String("error", err.Error()))
		return nil, false
	}

	gctx, cancel := context.WithTimeout(ctx, e.timeout)
	vec, err := e.provider.Embed(gctx, embed.Text(d.Title, body))
	cancel()
	if err != nil {
		e.logger.Warn("search: fallback generation failed",
			slog.String("id", d.ID), slog.String("error", err.Error()))
		return nil, false
	}

	if err := e.db.UpsertEmbedding(embed.Record{
		DocID:        d.ID,
		Vector:       vec,
		ModelID:      modelID,
		ModelVersion: modelVersion,
		Fingerprint:  d.Fingerprint,
		GeneratedAt:  time.Now().UTC(),
	}); err != nil {
		// The vector is still good for this search.
		e.logger.Warn("search: fallback upsert failed",
			slog.String("id", d.ID), slog.String("error", err.Error()))
	}
	return vec, true
}

// Cosine returns the cosine similarity of two vectors, 0 when either has
// zero norm (degenerate embedding) or the dimensions disagree.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
