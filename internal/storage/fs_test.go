package storage

import (
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestInvalidIDsRejected(t *testing.T) {
	s := tempVault(t)
	for _, id := range []string{"", "../escape", "Upper", "a b", "dot.md", "sub/dir"} {
		if err := s.Write(id, []byte("x")); err == nil {
			t.Errorf("Write(%q) succeeded, want error", id)
		}
		if _, err := s.Read(id); err == nil {
			t.Errorf("Read(%q) succeeded, want error", id)
		}
	}
}

func TestDelete(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("del", []byte("bye"))
	if err := s.Delete("del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del"); err == nil {
		t.Error("expected error reading deleted document")
	}
}

func TestListSkipsNonDocuments(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("alpha", []byte("a"))
	_ = s.Write("beta-2", []byte("b"))

	metas, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len = %d, want 2", len(metas))
	}
	for _, m := range metas {
		if m.Fingerprint == "" {
			t.Errorf("empty fingerprint for %s", m.ID)
		}
	}
}

func TestIDFromFilename(t *testing.T) {
	cases := map[string]string{
		"hello.md":      "hello",
		"note-42.md":    "note-42",
		"Upper.md":      "",
		"spaced id.md":  "",
		"noext":         "",
		"under_score.md": "",
	}
	for name, want := range cases {
		if got := IDFromFilename(name); got != want {
			t.Errorf("IDFromFilename(%q) = %q, want %q", name, got, want)
		}
	}
}
