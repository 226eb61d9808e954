package graph

import (
	"fmt"
)

// Graph is a resolved traceability graph snapshot. It is produced by a
// Builder and is immutable by convention: annotators may attach metrics,
// and the mutation log may rename or relabel nodes, but structure is
// fixed at build time. Clone yields an independent copy for speculative
// edits.
type Graph struct {
	nodes map[string]*Node
	order []string // insertion order, for deterministic full iteration
	edges []*Edge

	out map[string][]*Edge // edges by source id
	in  map[string][]*Edge // edges by target id

	broken    []BrokenReference
	conflicts []Conflict
	roots     []string
	orphans   []string
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		out:   make(map[string][]*Edge),
		in:    make(map[string][]*Edge),
	}
}

// FindByID returns the node with the given identifier.
func (g *Graph) FindByID(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Edges returns every edge in creation order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// OutEdges returns the edges whose source is id.
func (g *Graph) OutEdges(id string) []*Edge {
	return append([]*Edge(nil), g.out[id]...)
}

// InEdges returns the edges whose target is id.
func (g *Graph) InEdges(id string) []*Edge {
	return append([]*Edge(nil), g.in[id]...)
}

// Roots returns the root node ids: requirements with no resolvable
// parent (excluding orphans) plus every journey node.
func (g *Graph) Roots() []string {
	return append([]string(nil), g.roots...)
}

// HasOrphans reports whether any orphaned node exists.
func (g *Graph) HasOrphans() bool { return len(g.orphans) > 0 }

// OrphanCount returns the number of orphaned nodes.
func (g *Graph) OrphanCount() int { return len(g.orphans) }

// OrphanedNodes returns the orphaned nodes in identifier order.
func (g *Graph) OrphanedNodes() []*Node {
	nodes := make([]*Node, 0, len(g.orphans))
	for _, id := range g.orphans {
		if n, ok := g.nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// HasBrokenReferences reports whether any declared relationship failed to
// resolve.
func (g *Graph) HasBrokenReferences() bool { return len(g.broken) > 0 }

// BrokenReferences returns every unresolved reference.
func (g *Graph) BrokenReferences() []BrokenReference {
	return append([]BrokenReference(nil), g.broken...)
}

// Conflicts returns every duplicate-identifier conflict.
func (g *Graph) Conflicts() []Conflict {
	return append([]Conflict(nil), g.conflicts...)
}

// RenameNode changes a node's identifier, updating the index, edge
// endpoints, and derived id lists in one step so lookups are never stale.
func (g *Graph) RenameNode(oldID, newID string) error {
	n, ok := g.nodes[oldID]
	if !ok {
		return fmt.Errorf("rename: node %q not found", oldID)
	}
	if oldID == newID {
		return nil
	}
	if _, taken := g.nodes[newID]; taken {
		return fmt.Errorf("rename: identifier %q already in use", newID)
	}

	delete(g.nodes, oldID)
	n.ID = newID
	g.nodes[newID] = n

	for i, id := range g.order {
		if id == oldID {
			g.order[i] = newID
		}
	}
	for _, e := range g.edges {
		if e.Source == oldID {
			e.Source = newID
		}
		if e.Target == oldID {
			e.Target = newID
		}
	}
	if edges, ok := g.out[oldID]; ok {
		delete(g.out, oldID)
		g.out[newID] = edges
	}
	if edges, ok := g.in[oldID]; ok {
		delete(g.in, oldID)
		g.in[newID] = edges
	}
	replaceID(g.roots, oldID, newID)
	replaceID(g.orphans, oldID, newID)
	for i := range g.broken {
		if g.broken[i].SourceID == oldID {
			g.broken[i].SourceID = newID
		}
	}
	return nil
}

func replaceID(ids []string, oldID, newID string) {
	for i, id := range ids {
		if id == oldID {
			ids[i] = newID
		}
	}
}

// Clone returns a deep, fully independent copy of the graph. Mutating the
// clone, its nodes, edges, or metrics never affects the original.
func (g *Graph) Clone() *Graph {
	c := newGraph()
	c.order = append([]string(nil), g.order...)
	for id, n := range g.nodes {
		c.nodes[id] = n.Clone()
	}
	c.edges = make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		ce := e.Clone()
		c.edges = append(c.edges, ce)
		c.out[ce.Source] = append(c.out[ce.Source], ce)
		c.in[ce.Target] = append(c.in[ce.Target], ce)
	}
	c.broken = append([]BrokenReference(nil), g.broken...)
	c.conflicts = append([]Conflict(nil), g.conflicts...)
	c.roots = append([]string(nil), g.roots...)
	c.orphans = append([]string(nil), g.orphans...)
	return c
}
