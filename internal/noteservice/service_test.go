package noteservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/rundberg/ansuz/internal/apperr"
	"github.com/rundberg/ansuz/internal/graph"
	"github.com/rundberg/ansuz/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	return NewService(store, db, graph.NewStore())
}

func TestCreateGetDelete(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	detail, err := svc.CreateDocument(ctx, "hello", []byte("# Hello\nworld"))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if detail.Title != "Hello" || detail.Fingerprint == "" {
		t.Errorf("detail = %+v", detail)
	}

	got, err := svc.GetDocument(ctx, "hello")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Content != "# Hello\nworld" {
		t.Errorf("content = %q", got.Content)
	}

	if err := svc.DeleteDocument(ctx, "hello"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := svc.GetDocument(ctx, "hello"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if svc.Graph().HasDocument("hello") {
		t.Error("graph still knows deleted document")
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	if _, err := svc.CreateDocument(ctx, "dup", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateDocument(ctx, "dup", []byte("b")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateOptimisticConcurrency(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	created, err := svc.CreateDocument(ctx, "lock", []byte("v1"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateDocument(ctx, "lock", []byte("v2"), "bogus"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale fingerprint: err = %v, want ErrConflict", err)
	}
	if _, err := svc.UpdateDocument(ctx, "lock", []byte("v2"), created.Fingerprint); err != nil {
		t.Errorf("matching fingerprint: %v", err)
	}
}

func TestLinksFlowIntoGraph(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, _ = svc.CreateDocument(ctx, "a", []byte("see [[b]]"))
	_, _ = svc.CreateDocument(ctx, "b", []byte("no links"))
	_, _ = svc.CreateDocument(ctx, "c", []byte("see [[z]]"))

	if got := svc.Backlinks(ctx, "b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Backlinks(b) = %v, want [a]", got)
	}

	v := svc.Graph().FullGraph()
	if !reflect.DeepEqual(v.Edges, []graph.Edge{{Source: "a", Target: "b"}}) {
		t.Errorf("edges = %v, want only (a,b)", v.Edges)
	}

	detail, err := svc.GetDocument(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(detail.BrokenLinks, []string{"z"}) {
		t.Errorf("BrokenLinks(c) = %v, want [z]", detail.BrokenLinks)
	}
}

func TestSyncVaultAndRebuildGraph(t *testing.T) {
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_ = store.Write("one", []byte("# One\n[[two]]"))
	_ = store.Write("two", []byte("# Two"))

	svc := NewService(store, db, graph.NewStore())
	if err := svc.SyncVault(logger); err != nil {
		t.Fatalf("SyncVault: %v", err)
	}

	// A fresh service over the same DB rebuilds the graph from rows.
	svc2 := NewService(store, db, graph.NewStore())
	if err := svc2.RebuildGraph(); err != nil {
		t.Fatalf("RebuildGraph: %v", err)
	}
	if got := svc2.Graph().Backlinks("two"); !reflect.DeepEqual(got, []string{"one"}) {
		t.Errorf("Backlinks(two) = %v, want [one]", got)
	}

	// Removing the file and re-syncing drops the entry.
	_ = store.Delete("one")
	if err := svc2.SyncVault(logger); err != nil {
		t.Fatal(err)
	}
	if svc2.Graph().HasDocument("one") {
		t.Error("one still known after file removal + sync")
	}
}
