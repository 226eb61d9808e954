// Package graph holds the traceability graph: typed nodes and edges,
// the two-phase builder that resolves cross-document references, and
// deterministic traversal over the result.
package graph

import (
	"maps"
	"time"
)

// NodeKind tags what a node represents.
type NodeKind string

const (
	KindRequirement NodeKind = "requirement"
	KindAssertion   NodeKind = "assertion"
	KindUserJourney NodeKind = "user_journey"
	KindCode        NodeKind = "code"
	KindTest        NodeKind = "test"
	KindTestResult  NodeKind = "test_result"
	KindRemainder   NodeKind = "remainder"
)

// SourceRef locates a node in its originating document.
type SourceRef struct {
	Path      string
	StartLine int
	EndLine   int
	// Repo tags the originating repository, when the corpus spans more
	// than one.
	Repo string
}

// RequirementFields holds the kind-specific fields of a requirement node.
type RequirementFields struct {
	Level  string
	Status string
	// RecordedHash is the hash found in the document's end marker.
	RecordedHash string
	// ContentHash is the recomputed normalized hash of the assertions.
	ContentHash string
	// TopLevel marks requirements at the topmost configured hierarchy
	// level; they are never orphans.
	TopLevel bool
}

// AssertionFields holds the kind-specific fields of an assertion node.
// An assertion is owned by exactly one requirement; its id is derived
// from the parent id and its label, so ownership never changes.
type AssertionFields struct {
	Parent string
	Label  string
	Text   string
}

// JourneyFields holds the kind-specific fields of a user-journey node.
type JourneyFields struct {
	Actor           string
	Goal            string
	Context         string
	ExpectedOutcome string
	Steps           []string
}

// CodeFields holds the kind-specific fields of a synthetic code or test
// node, keyed by file and line.
type CodeFields struct {
	Path string
	Line int
}

// TestResultFields holds the kind-specific fields of a test-result node.
type TestResultFields struct {
	Status   string
	Duration time.Duration
	Message  string
}

// Node is a vertex in the traceability graph. A node is owned by the
// graph that created it; edges reference nodes by identifier only.
// Exactly one of the kind-specific field structs is non-nil, matching
// Kind. Metrics is mutable annotation state and never part of identity.
type Node struct {
	ID    string
	Kind  NodeKind
	Label string

	Source *SourceRef

	Requirement *RequirementFields
	Assertion   *AssertionFields
	Journey     *JourneyFields
	Code        *CodeFields
	TestResult  *TestResultFields

	// Raw preserves the verbatim region text for remainder and
	// plain-text nodes.
	Raw string

	// Conflicting marks nodes retained under a duplicate identifier.
	Conflicting bool

	// Metrics is populated by downstream annotators (coverage rollups,
	// git-state flags, display hints).
	Metrics map[string]any
}

// Clone returns a deep, independent copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	if n.Source != nil {
		src := *n.Source
		c.Source = &src
	}
	if n.Requirement != nil {
		f := *n.Requirement
		c.Requirement = &f
	}
	if n.Assertion != nil {
		f := *n.Assertion
		c.Assertion = &f
	}
	if n.Journey != nil {
		f := *n.Journey
		f.Steps = append([]string(nil), n.Journey.Steps...)
		c.Journey = &f
	}
	if n.Code != nil {
		f := *n.Code
		c.Code = &f
	}
	if n.TestResult != nil {
		f := *n.TestResult
		c.TestResult = &f
	}
	if n.Metrics != nil {
		c.Metrics = maps.Clone(n.Metrics)
	}
	return &c
}

// SetMetric attaches an annotation value, allocating the map on first use.
func (n *Node) SetMetric(key string, value any) {
	if n.Metrics == nil {
		n.Metrics = make(map[string]any)
	}
	n.Metrics[key] = value
}

// Metric reads an annotation value.
func (n *Node) Metric(key string) (any, bool) {
	v, ok := n.Metrics[key]
	return v, ok
}
