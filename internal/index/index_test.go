package index

import (
	"os"
	"testing"
	"time"

	"github.com/rundberg/ansuz/internal/embed"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM embeddings`).Scan(&count); err != nil {
		t.Fatalf("embeddings table missing: %v", err)
	}
}

func TestUpsertAndGetFingerprint(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		ID:          "hello",
		Title:       "Hello World",
		Fingerprint: "abc123",
		Tags:        []string{"go", "test"},
		UpdatedAt:   time.Now(),
	}
	if err := db.UpsertDocument(row, "This is a hello world note.", []string{"other"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	fp, err := db.GetFingerprint("hello")
	if err != nil {
		t.Fatalf("GetFingerprint: %v", err)
	}
	if fp != "abc123" {
		t.Errorf("fingerprint = %q, want %q", fp, "abc123")
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{ID: "up", Title: "Old", Fingerprint: "1", Tags: []string{}, UpdatedAt: now}, "old body", []string{"x"})
	_ = db.UpsertDocument(DocumentRow{ID: "up", Title: "New", Fingerprint: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body", []string{"y"})

	links, err := db.AllLinks()
	if err != nil {
		t.Fatalf("AllLinks: %v", err)
	}
	if len(links) != 1 || links[0].Source != "up" || links[0].Target != "y" {
		t.Errorf("links = %v, want [(up,y)]", links)
	}
}

func TestDeleteDocumentRemovesEverything(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{ID: "del", Fingerprint: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"target"})
	_ = db.UpsertEmbedding(embed.Record{
		DocID: "del", Vector: []float32{1, 2}, ModelID: "m", ModelVersion: "1",
		Fingerprint: "x", GeneratedAt: time.Now(),
	})

	if err := db.DeleteDocument("del"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	if fp, _ := db.GetFingerprint("del"); fp != "" {
		t.Errorf("deleted document still has fingerprint %q", fp)
	}
	if links, _ := db.AllLinks(); len(links) != 0 {
		t.Errorf("links left behind: %v", links)
	}
	if rec, _ := db.GetEmbedding("del"); rec != nil {
		t.Error("embedding left behind after document delete")
	}
}

func TestEmbeddingRoundtrip(t *testing.T) {
	db := testDB(t)
	rec := embed.Record{
		DocID:        "doc",
		Vector:       []float32{0.5, -1.25, 3},
		ModelID:      "text-embedding-3-small",
		ModelVersion: "1",
		Fingerprint:  "fp1",
		GeneratedAt:  time.Now().UTC(),
	}
	if err := db.UpsertEmbedding(rec); err != nil {
		t.Fatalf("UpsertEmbedding: %v", err)
	}

	got, err := db.GetEmbedding("doc")
	if err != nil {
		t.Fatalf("GetEmbedding: %v", err)
	}
	if got == nil {
		t.Fatal("record missing after upsert")
	}
	if len(got.Vector) != 3 || got.Vector[1] != -1.25 {
		t.Errorf("vector = %v", got.Vector)
	}
	if got.ModelID != rec.ModelID || got.ModelVersion != rec.ModelVersion || got.Fingerprint != rec.Fingerprint {
		t.Errorf("record fields = %+v", got)
	}
}

func TestUpsertEmbeddingReplaces(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEmbedding(embed.Record{DocID: "d", Vector: []float32{1}, ModelID: "m", ModelVersion: "1", Fingerprint: "old", GeneratedAt: time.Now()})
	_ = db.UpsertEmbedding(embed.Record{DocID: "d", Vector: []float32{2}, ModelID: "m", ModelVersion: "2", Fingerprint: "new", GeneratedAt: time.Now()})

	got, err := db.GetEmbedding("d")
	if err != nil {
		t.Fatalf("GetEmbedding: %v", err)
	}
	// No mixed-generation state: all fields come from the second upsert.
	if got.ModelVersion != "2" || got.Fingerprint != "new" || got.Vector[0] != 2 {
		t.Errorf("record = %+v, want fully replaced", got)
	}
}

func TestAllEmbeddings(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"a", "b", "c"} {
		_ = db.UpsertEmbedding(embed.Record{DocID: id, Vector: []float32{1}, ModelID: "m", ModelVersion: "1", Fingerprint: id, GeneratedAt: time.Now()})
	}
	recs, err := db.AllEmbeddings()
	if err != nil {
		t.Fatalf("AllEmbeddings: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if recs["b"].Fingerprint != "b" {
		t.Errorf("record b = %+v", recs["b"])
	}
}

func TestGetEmbeddingAbsent(t *testing.T) {
	db := testDB(t)
	rec, err := db.GetEmbedding("nope")
	if err != nil {
		t.Fatalf("GetEmbedding: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0, 1, -1, 0.0001, 12345.678}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("vector[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{ID: "a", Title: "A", Fingerprint: "1", Tags: []string{"keep"}, UpdatedAt: now}, "", nil)
	_ = db.UpsertDocument(DocumentRow{ID: "b", Title: "B", Fingerprint: "2", Tags: []string{}, UpdatedAt: now}, "", nil)

	rows, total, err := db.ListDocuments(10, 0, "", "id")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].ID != "a" {
		t.Errorf("rows = %v total = %d", rows, total)
	}

	rows, total, err = db.ListDocuments(10, 0, "keep", "")
	if err != nil {
		t.Fatalf("ListDocuments(tag): %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != "a" {
		t.Errorf("tag filter rows = %v total = %d", rows, total)
	}
}

func TestSearchFallback(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{ID: "greet", Title: "Greetings", Fingerprint: "1", Tags: []string{}, UpdatedAt: time.Now()}, "hello world body", nil)

	results, err := db.Search("hello", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "greet" {
		t.Errorf("results = %v", results)
	}
}
