package graph

import "sort"

// View is the node/edge projection consumed by the visualization layer.
// It is rebuilt on demand and never persisted.
type View struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// FullGraph returns every known document and every edge whose two
// endpoints both exist. Broken links are excluded from this view.
func (s *Store) FullGraph() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Nodes: make([]Node, 0, len(s.titles)),
		Edges: []Edge{},
	}
	for id, title := range s.titles {
		v.Nodes = append(v.Nodes, Node{ID: id, Title: title})
	}
	for source, targets := range s.forward {
		if _, known := s.titles[source]; !known {
			continue
		}
		for target := range targets {
			if _, known := s.titles[target]; !known {
				continue
			}
			v.Edges = append(v.Edges, Edge{Source: source, Target: target})
		}
	}
	sortView(&v)
	return v
}

// LocalSubgraph returns the neighborhood of center up to depth hops,
// following edges in both directions. Traversal keeps a visited set so it
// terminates on any graph, cycles included. An unknown center yields an
// empty view — a document deleted mid-request is simply absent, not an
// error.
func (s *Store) LocalSubgraph(center string, depth int) View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{Nodes: []Node{}, Edges: []Edge{}}
	if _, known := s.titles[center]; !known || depth < 0 {
		return v
	}

	visited := map[string]struct{}{center: {}}
	frontier := []string{center}
	edgeSeen := make(map[Edge]struct{})

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			for target := range s.forward[id] {
				if _, known := s.titles[target]; !known {
					continue
				}
				edgeSeen[Edge{Source: id, Target: target}] = struct{}{}
				if _, ok := visited[target]; !ok {
					visited[target] = struct{}{}
					next = append(next, target)
				}
			}
			for source := range s.reverse[id] {
				if _, known := s.titles[source]; !known {
					continue
				}
				edgeSeen[Edge{Source: source, Target: id}] = struct{}{}
				if _, ok := visited[source]; !ok {
					visited[source] = struct{}{}
					next = append(next, source)
				}
			}
		}
		frontier = next
	}

	for id := range visited {
		v.Nodes = append(v.Nodes, Node{ID: id, Title: s.titles[id]})
	}
	for e := range edgeSeen {
		v.Edges = append(v.Edges, e)
	}
	sortView(&v)
	return v
}

func sortView(v *View) {
	sort.Slice(v.Nodes, func(i, j int) bool { return v.Nodes[i].ID < v.Nodes[j].ID })
	sort.Slice(v.Edges, func(i, j int) bool {
		if v.Edges[i].Source != v.Edges[j].Source {
			return v.Edges[i].Source < v.Edges[j].Source
		}
		return v.Edges[i].Target < v.Edges[j].Target
	})
}
