package graph

import (
	"iter"
	"sort"
)

// WalkOrder selects a traversal order for AllNodes.
type WalkOrder string

const (
	// OrderPre visits each node before its children.
	OrderPre WalkOrder = "pre"
	// OrderPost visits each node after its children.
	OrderPost WalkOrder = "post"
	// OrderLevel visits nodes breadth-first from the roots.
	OrderLevel WalkOrder = "level"
	// OrderIndex iterates the full node index in identifier order,
	// including nodes unreachable from any root.
	OrderIndex WalkOrder = "index"
)

// Children returns the traversal children of a node, sorted by
// identifier: its contained assertions, plus every node that declares an
// Implements, Refines, or Addresses relationship to it.
func (g *Graph) Children(id string) []string {
	var children []string
	for _, e := range g.out[id] {
		if e.Kind == EdgeContains {
			children = append(children, e.Target)
		}
	}
	for _, e := range g.in[id] {
		switch e.Kind {
		case EdgeImplements, EdgeRefines, EdgeAddresses:
			children = append(children, e.Source)
		}
	}
	sort.Strings(children)
	return children
}

// AllNodes produces a lazy, restartable, deterministic sequence of nodes
// in the given order. Tree orders start from the roots (identifier
// sorted) and visit every reachable node exactly once; OrderIndex
// enumerates the whole index, reachable or not.
func (g *Graph) AllNodes(order WalkOrder) iter.Seq[*Node] {
	if order == OrderIndex {
		return func(yield func(*Node) bool) {
			ids := make([]string, 0, len(g.nodes))
			for id := range g.nodes {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				if !yield(g.nodes[id]) {
					return
				}
			}
		}
	}

	return func(yield func(*Node) bool) {
		roots := append([]string(nil), g.roots...)
		sort.Strings(roots)
		visited := make(map[string]struct{}, len(g.nodes))

		switch order {
		case OrderLevel:
			queue := roots
			for len(queue) > 0 {
				id := queue[0]
				queue = queue[1:]
				if _, seen := visited[id]; seen {
					continue
				}
				visited[id] = struct{}{}
				if n, ok := g.nodes[id]; ok {
					if !yield(n) {
						return
					}
				}
				queue = append(queue, g.Children(id)...)
			}
		default:
			var walk func(id string) bool
			walk = func(id string) bool {
				if _, seen := visited[id]; seen {
					return true
				}
				visited[id] = struct{}{}
				n, ok := g.nodes[id]
				if !ok {
					return true
				}
				if order == OrderPre {
					if !yield(n) {
						return false
					}
				}
				for _, child := range g.Children(id) {
					if !walk(child) {
						return false
					}
				}
				if order == OrderPost {
					return yield(n)
				}
				return true
			}
			for _, root := range roots {
				if !walk(root) {
					return
				}
			}
		}
	}
}

// NodesByKind returns every node of the given kind in identifier order.
func (g *Graph) NodesByKind(kind NodeKind) []*Node {
	var nodes []*Node
	for n := range g.AllNodes(OrderIndex) {
		if n.Kind == kind {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Assertions returns a requirement's assertion children in label order.
func (g *Graph) Assertions(requirementID string) []*Node {
	var nodes []*Node
	for _, e := range g.out[requirementID] {
		if e.Kind != EdgeContains {
			continue
		}
		if n, ok := g.nodes[e.Target]; ok && n.Kind == KindAssertion {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}
