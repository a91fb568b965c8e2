// Package graph maintains the in-memory wikilink graph: a dual adjacency
// index (forward map + backlink map, kept in step) over the documents
// currently known to the system. All reads and writes go through a single
// RWMutex; writers never hold the lock across I/O.
package graph

import (
	"sort"
	"sync"
)

// Node is a document as it appears in a graph view.
type Node struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Edge is a directed link between two documents.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Store holds the link graph. The zero value is not usable; use NewStore.
type Store struct {
	mu sync.RWMutex

	// titles doubles as the known-document set: a document exists iff it
	// has an entry here, even with an empty title.
	titles  map[string]string
	forward map[string]map[string]struct{}
	reverse map[string]map[string]struct{}
}

// NewStore creates an empty graph store.
func NewStore() *Store {
	return &Store{
		titles:  make(map[string]string),
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// SetDocument registers id as a known document (or updates its title).
func (s *Store) SetDocument(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[id] = title
}

// HasDocument reports whether id is a known document.
func (s *Store) HasDocument(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.titles[id]
	return ok
}

// SetLinks replaces all outbound edges of source with targets. The update
// is a symmetric diff against the previous edge set, so only backlink
// entries of affected targets are touched.
func (s *Store) SetLinks(source string, targets []string) {
	next := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		next[t] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.forward[source]

	// Removed edges: in prev, not in next.
	for t := range prev {
		if _, keep := next[t]; keep {
			continue
		}
		if back := s.reverse[t]; back != nil {
			delete(back, source)
			if len(back) == 0 {
				delete(s.reverse, t)
			}
		}
	}

	// Added edges: in next, not in prev.
	for t := range next {
		if _, had := prev[t]; had {
			continue
		}
		back := s.reverse[t]
		if back == nil {
			back = make(map[string]struct{})
			s.reverse[t] = back
		}
		back[source] = struct{}{}
	}

	if len(next) == 0 {
		delete(s.forward, source)
	} else {
		s.forward[source] = next
	}
}

// ForwardLinks returns the targets source currently links to, sorted.
func (s *Store) ForwardLinks(source string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.forward[source])
}

// Backlinks returns the documents currently linking to target, sorted.
func (s *Store) Backlinks(target string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.reverse[target])
}

// BrokenLinks returns the outbound targets of source that are not known
// documents. Broken links are a valid read-time state, never an error:
// the target may simply not have been created yet.
func (s *Store) BrokenLinks(source string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for t := range s.forward[source] {
		if _, known := s.titles[t]; !known {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// RemoveDocument forgets id: its forward edges (removing id from the
// backlink set of every former target) and its entry in the known set.
// Inbound edges from other documents survive as broken links, since their
// source bodies still contain the wikilink text. The removal happens
// under a single write lock, so readers see either the fully-present or
// the fully-removed state.
func (s *Store) RemoveDocument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for t := range s.forward[id] {
		if back := s.reverse[t]; back != nil {
			delete(back, id)
			if len(back) == 0 {
				delete(s.reverse, t)
			}
		}
	}
	delete(s.forward, id)
	delete(s.titles, id)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
