// Package syncer reconciles the embedding cache against the document
// corpus: every current document should end up with a valid embedding
// record, at a bounded cost per run.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rundberg/ansuz/internal/embed"
	"github.com/rundberg/ansuz/internal/index"
)

// Summary reports the outcome of one reconciliation pass.
type Summary struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Syncer drives the embedding store toward "every document has a valid
// record". Documents are independent, so regeneration runs with bounded
// parallelism and a single document's failure never aborts the pass.
type Syncer struct {
	db          index.DocumentIndex
	provider    embed.Provider
	logger      *slog.Logger
	maxParallel int
}

// New creates a Syncer. maxParallel bounds concurrent generation calls;
// values below 1 are clamped to 1.
func New(db index.DocumentIndex, provider embed.Provider, logger *slog.Logger, maxParallel int) *Syncer {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Syncer{
		db:          db,
		provider:    provider,
		logger:      logger,
		maxParallel: maxParallel,
	}
}

// Sync classifies every indexed document against its cached record and
// regenerates the missing and stale ones. Valid records are skipped
// without touching the provider. Generation failures are logged per
// document and counted; the returned error covers only index-level
// failures that prevent the pass from running at all.
func (s *Syncer) Sync(ctx context.Context) (Summary, error) {
	docs, err := s.db.AllDocuments()
	if err != nil {
		return Summary{}, fmt.Errorf("syncer: list documents: %w", err)
	}
	recs, err := s.db.AllEmbeddings()
	if err != nil {
		return Summary{}, fmt.Errorf("syncer: load embeddings: %w", err)
	}

	modelID := s.provider.ModelID()
	modelVersion := s.provider.ModelVersion()

	summary := Summary{Total: len(docs)}
	var pending []index.DocumentRow
	for _, d := range docs {
		if embed.Classify(recs[d.ID], modelID, modelVersion, d.Fingerprint) == embed.StateValid {
			summary.Skipped++
			continue
		}
		pending = append(pending, d)
	}

	if len(pending) == 0 {
		return summary, nil
	}
	s.logger.Info("embedding sync started",
		slog.Int("pending", len(pending)),
		slog.Int("total", summary.Total))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for _, d := range pending {
		g.Go(func() error {
			if err := s.regenerate(gCtx, d); err != nil {
				s.logger.Warn("embedding sync: document failed",
					slog.String("id", d.ID),
					slog.String("error", err.Error()))
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				return nil // per-document failures are non-fatal
			}
			mu.Lock()
			summary.Generated++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("embedding sync finished",
		slog.Int("generated", summary.Generated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// SyncOne refreshes a single document's record if it is missing or stale.
// Used by the watcher after content changes.
func (s *Syncer) SyncOne(ctx context.Context, id string) error {
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return fmt.Errorf("syncer: get document: %w", err)
	}
	if doc == nil {
		// Deleted between the change event and now; nothing to embed.
		return nil
	}
	rec, err := s.db.GetEmbedding(id)
	if err != nil {
		return fmt.Errorf("syncer: get embedding: %w", err)
	}
	if embed.Classify(rec, s.provider.ModelID(), s.provider.ModelVersion(), doc.Fingerprint) == embed.StateValid {
		return nil
	}
	return s.regenerate(ctx, *doc)
}

// regenerate fetches the document body, asks the provider for a fresh
// vector, and upserts the record. No store lock is held while the
// network call is in flight.
func (s *Syncer) regenerate(ctx context.Context, d index.DocumentRow) error {
	body, err := s.db.GetBody(d.ID)
	if err != nil {
		return fmt.Errorf("syncer: body of %s: %w", d.ID, err)
	}

	vec, err := s.provider.Embed(ctx, embed.Text(d.Title, body))
	if err != nil {
		return fmt.Errorf("syncer: embed %s: %w", d.ID, err)
	}

	return s.db.UpsertEmbedding(embed.Record{
		DocID:        d.ID,
		Vector:       vec,
		ModelID:      s.provider.ModelID(),
		ModelVersion: s.provider.ModelVersion(),
		Fingerprint:  d.Fingerprint,
		GeneratedAt:  time.Now().UTC(),
	})
}
