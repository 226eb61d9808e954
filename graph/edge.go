package graph

import "slices"

// EdgeKind is the typed label on a directed relationship. Whether a kind
// counts toward coverage rollup is a fixed property of the kind itself.
type EdgeKind string

const (
	// EdgeImplements links a finer-grained item to the coarser one it
	// implements. Counts toward coverage.
	EdgeImplements EdgeKind = "implements"
	// EdgeRefines links peers of the same granularity hierarchically.
	// Does not count toward coverage.
	EdgeRefines EdgeKind = "refines"
	// EdgeValidates links a test or code unit to the entity it
	// validates. Counts toward coverage.
	EdgeValidates EdgeKind = "validates"
	// EdgeAddresses links a narrative journey to a requirement it
	// references. Does not count toward coverage.
	EdgeAddresses EdgeKind = "addresses"
	// EdgeContains is structural containment (requirement to its
	// assertions). Does not count toward coverage.
	EdgeContains EdgeKind = "contains"
)

// CountsTowardCoverage reports whether edges of this kind contribute to
// the coverage rollup.
func (k EdgeKind) CountsTowardCoverage() bool {
	return k == EdgeImplements || k == EdgeValidates
}

// Edge is a directed, typed relationship between two nodes, referencing
// them by identifier.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind

	// AssertionTargets narrows the relationship from "the whole target"
	// to specific labeled assertions of it. Empty means the whole
	// target.
	AssertionTargets []string
}

// Targeted reports whether the edge narrows to specific assertions.
func (e *Edge) Targeted() bool {
	return len(e.AssertionTargets) > 0
}

// TargetsAssertion reports whether the edge claims the given assertion
// label. Untargeted edges claim every label of the target.
func (e *Edge) TargetsAssertion(label string) bool {
	if !e.Targeted() {
		return true
	}
	return slices.Contains(e.AssertionTargets, label)
}

// Clone returns an independent copy of the edge.
func (e *Edge) Clone() *Edge {
	c := *e
	c.AssertionTargets = append([]string(nil), e.AssertionTargets...)
	return &c
}

// BrokenReference records a declared relationship whose target does not
// exist in the built graph.
type BrokenReference struct {
	SourceID string
	TargetID string
	Kind     EdgeKind
}

// Conflict records a duplicate identifier: the id, and the alias under
// which the later entity was retained.
type Conflict struct {
	ID    string
	Alias string
}
