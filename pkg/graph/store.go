package graph

// Store owns the visual graph: a node-id keyed map of nodes plus an
// ordered list of edges. It has no knowledge of editing gestures; all
// compound mutation goes through the engine.
type Store struct {
	nodes map[NodeID]*Node
	edges []*Edge
}

// NewStore creates an empty graph store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[NodeID]*Node),
		edges: make([]*Edge, 0),
	}
}

// AddNode inserts a node. The caller is responsible for ID uniqueness.
func (s *Store) AddNode(n *Node) {
	s.nodes[n.ID] = n
}

// Node returns the node with the given id.
func (s *Store) Node(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns every node. The map is live; callers must not mutate it.
func (s *Store) Nodes() map[NodeID]*Node {
	return s.nodes
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// NodesBySpecies returns every node referencing the named species.
func (s *Store) NodesBySpecies(name string) []*Node {
	var out []*Node
	for _, n := range s.nodes {
		if n.SpeciesName == name {
			out = append(out, n)
		}
	}
	return out
}

// RemoveNode deletes a node. It does not touch edges; cascades are the
// engine's job so the two representations move together.
func (s *Store) RemoveNode(id NodeID) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	return true
}

// MoveNode updates a node's position.
func (s *Store) MoveNode(id NodeID, x, y float64) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.X = x
	n.Y = y
	return true
}

// AddEdge appends an edge. The caller is responsible for endpoint
// existence and ordered-pair uniqueness.
func (s *Store) AddEdge(e *Edge) {
	s.edges = append(s.edges, e)
}

// Edge returns the edge with the given id.
func (s *Store) Edge(id EdgeID) (*Edge, bool) {
	for _, e := range s.edges {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// FindEdge returns the edge for an ordered (source, target) pair.
func (s *Store) FindEdge(source, target NodeID) (*Edge, bool) {
	for _, e := range s.edges {
		if e.SourceID == source && e.TargetID == target {
			return e, true
		}
	}
	return nil, false
}

// Edges returns every edge. The slice is live; callers must not mutate it.
func (s *Store) Edges() []*Edge {
	return s.edges
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// IncidentEdges returns every edge with the node as source or target.
func (s *Store) IncidentEdges(id NodeID) []*Edge {
	var out []*Edge
	for _, e := range s.edges {
		if e.SourceID == id || e.TargetID == id {
			out = append(out, e)
		}
	}
	return out
}

// RemoveEdge deletes an edge by id.
func (s *Store) RemoveEdge(id EdgeID) bool {
	for i, e := range s.edges {
		if e.ID == id {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the store.
func (s *Store) Clear() {
	s.nodes = make(map[NodeID]*Node)
	s.edges = s.edges[:0]
}
