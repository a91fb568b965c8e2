// Package testutil provides shared test helpers for setting up vaults,
// databases, and a fake embedding provider.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/rundberg/ansuz/internal/fingerprint"
	"github.com/rundberg/ansuz/internal/index"
	"github.com/rundberg/ansuz/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// FakeProvider is a deterministic in-process embedding provider. Vectors
// are derived from the input text unless overridden via Vectors, so any
// two equal texts always embed identically.
type FakeProvider struct {
	mu sync.Mutex

	Model   string
	Version string
	// Vectors overrides the derived vector for exact text matches.
	Vectors map[string][]float32
	// Err, when set, makes every Embed call fail.
	Err error

	calls int
}

// NewFakeProvider returns a provider reporting model "fake" version "1".
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{Model: "fake", Version: "1"}
}

// Embed returns a deterministic 4-dimensional vector for text.
func (p *FakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if p.Err != nil {
		return nil, p.Err
	}
	if v, ok := p.Vectors[text]; ok {
		return v, nil
	}

	// Spread the fingerprint bytes over a few dimensions.
	sum := fingerprint.Sum([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(sum[i*2]) / 255
	}
	return vec, nil
}

// ModelID returns the configured fake model id.
func (p *FakeProvider) ModelID() string { return p.Model }

// ModelVersion returns the configured fake model version.
func (p *FakeProvider) ModelVersion() string { return p.Version }

// Calls returns how many Embed calls were made.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
