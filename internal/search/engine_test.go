package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/rundberg/ansuz/internal/apperr"
	"github.com/rundberg/ansuz/internal/embed"
	"github.com/rundberg/ansuz/internal/index"
	"github.com/rundberg/ansuz/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedDoc(t *testing.T, db *index.DB, id, body string) {
	t.Helper()
	err := db.UpsertDocument(index.DocumentRow{
		ID:          id,
		Title:       "",
		Fingerprint: "fp-" + id,
		Tags:        []string{},
		UpdatedAt:   time.Now(),
	}, body, nil)
	if err != nil {
		t.Fatal(err)
	}
}

func seedRecord(t *testing.T, db *index.DB, id string, vec []float32) {
	t.Helper()
	err := db.UpsertEmbedding(embed.Record{
		DocID:        id,
		Vector:       vec,
		ModelID:      "fake",
		ModelVersion: "1",
		Fingerprint:  "fp-" + id,
		GeneratedAt:  time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSearchRankingAndDeterminism(t *testing.T) {
	db := testutil.TestDB(t)
	p := testutil.NewFakeProvider()
	p.Vectors = map[string][]float32{"query": {1, 0, 0, 0}}

	seedDoc(t, db, "near", "")
	seedDoc(t, db, "far", "")
	seedDoc(t, db, "mid", "")
	seedRecord(t, db, "near", []float32{1, 0, 0, 0})
	seedRecord(t, db, "mid", []float32{1, 1, 0, 0})
	seedRecord(t, db, "far", []float32{0, 1, 0, 0})

	e := NewEngine(db, p, discardLogger(), time.Second)
	results, err := e.Search(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len = %d, want 3", len(results))
	}
	want := []string{"near", "mid", "far"}
	for i, r := range results {
		if r.ID != want[i] {
			t.Errorf("results[%d] = %s, want %s", i, r.ID, want[i])
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestSearchTieBreakByID(t *testing.T) {
	db := testutil.TestDB(t)
	p := testutil.NewFakeProvider()
	p.Vectors = map[string][]float32{"q": {1, 0, 0, 0}}

	for _, id := range []string{"zeta", "alpha", "mike"} {
		seedDoc(t, db, id, "")
		seedRecord(t, db, id, []float32{2, 0, 0, 0})
	}

	e := NewEngine(db, p, discardLogger(), time.Second)
	results, err := e.Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha", "mike", "zeta"}
	for i, r := range results {
		if r.ID != want[i] {
			t.Errorf("results[%d] = %s, want %s (tie-break id asc)", i, r.ID, want[i])
		}
	}
}

func TestSearchTopK(t *testing.T) {
	db := testutil.TestDB(t)
	p := testutil.NewFakeProvider()
	for _, id := range []string{"a", "b", "c"} {
		seedDoc(t, db, id, "")
		seedRecord(t, db, id, []float32{1, 1, 1, 1})
	}
	e := NewEngine(db, p, discardLogger(), time.Second)

	results, err := e.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("len = %d, want 2", len(results))
	}

	for _, k := range []int{0, -5} {
		results, err := e.Search(context.Background(), "q", k)
		if err != nil {
			t.Fatalf("topK=%d: %v", k, err)
		}
		if len(results) != 0 {
			t.Errorf("topK=%d: len = %d, want 0", k, len(results))
		}
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	db := testutil.TestDB(t)
	p := testutil.NewFakeProvider()
	e := NewEngine(db, p, discardLogger(), time.Second)

	results, err := e.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len = %d, want 0", len(results))
	}
	if p.Calls() != 0 {
		t.Errorf("provider called %d times on empty corpus", p.Calls())
	}
}

func TestSearchCachedCorpusSingleProviderCall(t *testing.T) {
	db := testutil.TestDB(t)
	p := testutil.NewFakeProvider()
	for _, id := range []string{"a", "b", "c"} {
		seedDoc(t, db, id, "body "+id)
		seedRecord(t, db, id, []float32{1, 0, 0, 0})
	}
	e := NewEngine(db, p, discardLogger(), time.Second)

	results, err := e.Search(context.Background(), "", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("len = %d, want 3", len(results))
	}
	// Fully cached corpus: only the query itself hits the provider.
	if p.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", p.Calls())
	}
}

func TestSearchFallbackGeneratesOnlyUncached(t *testing.T) {
	db := testutil.TestDB(t)
	p := testutil.NewFakeProvider()
	seedDoc(t, db, "cached", "cached body")
	seedDoc(t, db, "fresh", "fresh body")
	seedRecord(t, db, "cached", []float32{1, 0, 0, 0})

	e := NewEngine(db, p, discardLogger(), time.Second)
	results, err := e.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2 (fallback keeps uncached docs searchable)", len(results))
	}
	// Query + one fallback generation.
	if p.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2", p.Calls())
	}

	// Fallback result is written back: a second search is fully cached.
	before := p.Calls()
	if _, err := e.Search(context.Background(), "q", 5); err != nil {
		t.Fatal(err)
	}
	if got := p.Calls() - before; got != 1 {
		t.Errorf("second search made %d provider calls, want 1", got)
	}
}

func TestSearchQueryEmbedFailure(t *testing.T) {
	db := testutil.TestDB(t)
	seedDoc(t, db, "a", "body")
	p := testutil.NewFakeProvider()
	p.Err = errors.New("connection refused")

	e := NewEngine(db, p, discardLogger(), time.Second)
	_, err := e.Search(context.Background(), "q", 5)
	if !errors.Is(err, apperr.ErrEmbeddingUnavailable) {
		t.Errorf("err = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestCosineProperties(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}

	if got, want := Cosine(a, b), Cosine(b, a); math.Abs(got-want) > 1e-12 {
		t.Errorf("cosine not symmetric: %v vs %v", got, want)
	}
	if got := Cosine(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("Cosine(v,v) = %v, want 1", got)
	}
	if got := Cosine([]float32{0, 0, 0}, a); got != 0 {
		t.Errorf("zero-norm cosine = %v, want 0", got)
	}
	if got := Cosine([]float32{1, 2}, a); got != 0 {
		t.Errorf("dimension mismatch cosine = %v, want 0", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Errorf("opposite vectors = %v, want -1", got)
	}
}
