package graph

import (
	"fmt"
	"log/slog"
	"sort"

	"tracegraph/contenthash"
	"tracegraph/ident"
	"tracegraph/parser"
)

// pendingLink is a parsed-but-unresolved cross-reference awaiting the
// resolution pass.
type pendingLink struct {
	source string
	target string
	kind   EdgeKind
}

// Builder accumulates parsed regions from any number of documents, in any
// order, and produces a resolved Graph. References are queued during node
// creation and resolved in a second pass once the node index is complete,
// so forward declarations across documents work. A Builder is consumed by
// Build and cannot be reused.
type Builder struct {
	grammar *ident.Grammar
	hasher  *contenthash.Hasher
	logger  *slog.Logger

	g       *Graph
	pending []pendingLink
	built   bool
}

// NewBuilder creates a builder. hasher may be nil to skip content
// hashing; logger may be nil.
func NewBuilder(grammar *ident.Grammar, hasher *contenthash.Hasher, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		grammar: grammar,
		hasher:  hasher,
		logger:  logger,
		g:       newGraph(),
	}
}

// AddRegions feeds one document's parsed regions into the node-creation
// pass. repo optionally tags the originating repository.
func (b *Builder) AddRegions(path, repo string, regions []parser.Region) error {
	if b.built {
		return fmt.Errorf("builder already consumed by Build")
	}
	for _, region := range regions {
		src := &SourceRef{Path: path, StartLine: region.StartLine, EndLine: region.EndLine, Repo: repo}
		switch data := region.Data.(type) {
		case *parser.RequirementData:
			b.addRequirement(data, src)
		case *parser.JourneyData:
			b.addJourney(data, src)
		case *parser.CodeRefData:
			b.addCodeRef(data, src)
		case *parser.TestResultData:
			b.addTestResult(data, src, region)
		default:
			if region.Type == parser.TypeRemainder {
				b.addRemainder(region, src)
			}
			// Plain-text (suppressed fixture) regions produce no nodes.
		}
	}
	return nil
}

// addNode inserts a node, conflict-marking duplicates. The duplicate is
// retained under an alias so both entities stay queryable for human
// resolution; it is never a silent overwrite.
func (b *Builder) addNode(n *Node) *Node {
	if existing, dup := b.g.nodes[n.ID]; dup {
		alias := fmt.Sprintf("%s~dup%d", n.ID, len(b.g.conflicts)+2)
		existing.Conflicting = true
		n.Conflicting = true
		b.g.conflicts = append(b.g.conflicts, Conflict{ID: n.ID, Alias: alias})
		b.logger.Warn("duplicate identifier",
			slog.String("id", n.ID),
			slog.String("alias", alias),
			slog.String("path", n.Source.Path))
		n.ID = alias
	}
	b.g.nodes[n.ID] = n
	b.g.order = append(b.g.order, n.ID)
	return n
}

func (b *Builder) addRequirement(data *parser.RequirementData, src *SourceRef) {
	fields := &RequirementFields{
		Level:        data.Level,
		Status:       data.Status,
		RecordedHash: data.Hash,
		TopLevel:     b.grammar.IsTopLevel(data.ID),
	}
	if b.hasher != nil && len(data.Assertions) > 0 {
		texts := make([]string, len(data.Assertions))
		for i, a := range data.Assertions {
			texts[i] = a.Text
		}
		fields.ContentHash = b.hasher.HashNormalized(texts)
	}

	req := b.addNode(&Node{
		ID:          data.ID,
		Kind:        KindRequirement,
		Label:       data.Title,
		Source:      src,
		Requirement: fields,
	})

	for _, a := range data.Assertions {
		child := b.addNode(&Node{
			ID:     req.ID + "-" + a.Label,
			Kind:   KindAssertion,
			Label:  a.Label,
			Source: src,
			Assertion: &AssertionFields{
				Parent: req.ID,
				Label:  a.Label,
				Text:   a.Text,
			},
		})
		b.addEdge(&Edge{Source: req.ID, Target: child.ID, Kind: EdgeContains})
	}

	for _, ref := range data.Implements {
		b.pending = append(b.pending, pendingLink{source: req.ID, target: ref, kind: EdgeImplements})
	}
	for _, ref := range data.Refines {
		b.pending = append(b.pending, pendingLink{source: req.ID, target: ref, kind: EdgeRefines})
	}
}

func (b *Builder) addJourney(data *parser.JourneyData, src *SourceRef) {
	j := b.addNode(&Node{
		ID:     data.ID,
		Kind:   KindUserJourney,
		Label:  data.Title,
		Source: src,
		Journey: &JourneyFields{
			Actor:           data.Actor,
			Goal:            data.Goal,
			Context:         data.Context,
			ExpectedOutcome: data.ExpectedOutcome,
			Steps:           data.Steps,
		},
	})
	for _, ref := range data.Addresses {
		b.pending = append(b.pending, pendingLink{source: j.ID, target: ref, kind: EdgeAddresses})
	}
}

// addCodeRef creates (or reuses) the synthetic node for a file+line and
// queues its references. Validates comments produce Test nodes,
// Implements comments produce Code nodes.
func (b *Builder) addCodeRef(data *parser.CodeRefData, src *SourceRef) {
	id := fmt.Sprintf("%s:%d", data.Path, data.Line)
	node, ok := b.g.nodes[id]
	if !ok {
		kind := KindCode
		edgeKind := EdgeImplements
		if data.Kind == parser.RefValidates {
			kind = KindTest
			edgeKind = EdgeValidates
		}
		node = b.addNode(&Node{
			ID:     id,
			Kind:   kind,
			Label:  id,
			Source: src,
			Code:   &CodeFields{Path: data.Path, Line: data.Line},
		})
		for _, ref := range data.Targets {
			b.pending = append(b.pending, pendingLink{source: node.ID, target: ref, kind: edgeKind})
		}
		return
	}
	// Reused node: still queue any new targets.
	edgeKind := EdgeImplements
	if data.Kind == parser.RefValidates {
		edgeKind = EdgeValidates
	}
	for _, ref := range data.Targets {
		b.pending = append(b.pending, pendingLink{source: node.ID, target: ref, kind: edgeKind})
	}
}

func (b *Builder) addTestResult(data *parser.TestResultData, src *SourceRef, region parser.Region) {
	id := fmt.Sprintf("%s:%d", src.Path, region.StartLine)
	node := b.addNode(&Node{
		ID:     id,
		Kind:   KindTestResult,
		Label:  data.Name,
		Source: src,
		TestResult: &TestResultFields{
			Status:   string(data.Status),
			Duration: data.Duration,
			Message:  data.Message,
		},
	})
	for _, ref := range data.Targets {
		b.pending = append(b.pending, pendingLink{source: node.ID, target: ref, kind: EdgeValidates})
	}
}

func (b *Builder) addRemainder(region parser.Region, src *SourceRef) {
	id := fmt.Sprintf("%s:%d", src.Path, region.StartLine)
	if _, dup := b.g.nodes[id]; dup {
		return
	}
	b.addNode(&Node{
		ID:     id,
		Kind:   KindRemainder,
		Label:  firstLine(region.Text),
		Source: src,
		Raw:    region.Text,
	})
}

func (b *Builder) addEdge(e *Edge) {
	b.g.edges = append(b.g.edges, e)
	b.g.out[e.Source] = append(b.g.out[e.Source], e)
	b.g.in[e.Target] = append(b.g.in[e.Target], e)
}

// Build runs the resolution pass and root/orphan classification, then
// returns the finished graph. The builder must not be used afterwards.
func (b *Builder) Build() (*Graph, error) {
	if b.built {
		return nil, fmt.Errorf("builder already consumed by Build")
	}
	b.built = true

	for _, link := range b.pending {
		target, ok := b.g.nodes[link.target]
		if !ok {
			b.g.broken = append(b.g.broken, BrokenReference{
				SourceID: link.source,
				TargetID: link.target,
				Kind:     link.kind,
			})
			continue
		}
		e := &Edge{Source: link.source, Target: link.target, Kind: link.kind}
		if target.Kind == KindAssertion {
			e.AssertionTargets = []string{target.Assertion.Label}
		}
		b.addEdge(e)
	}
	b.pending = nil

	b.classify()
	g := b.g
	b.g = nil
	return g, nil
}

// classify computes orphans first, then roots, so the two sets are
// disjoint: a parentless non-top-level requirement with no meaningful
// children is an orphan, not a root.
func (b *Builder) classify() {
	g := b.g
	var roots, orphans []string
	for _, id := range g.order {
		n := g.nodes[id]
		switch n.Kind {
		case KindUserJourney:
			roots = append(roots, id)
		case KindRequirement:
			parentless := len(b.requirementParents(n)) == 0
			if !parentless {
				continue
			}
			if !n.Requirement.TopLevel && !b.hasMeaningfulChildren(n) {
				orphans = append(orphans, id)
				continue
			}
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	sort.Strings(orphans)
	g.roots = roots
	g.orphans = orphans
}

// requirementParents returns the requirements this node declares an
// Implements relationship to, following assertion targets up to their
// owning requirement.
func (b *Builder) requirementParents(n *Node) []string {
	var parents []string
	for _, e := range b.g.out[n.ID] {
		if e.Kind != EdgeImplements {
			continue
		}
		target, ok := b.g.nodes[e.Target]
		if !ok {
			continue
		}
		switch target.Kind {
		case KindRequirement:
			parents = append(parents, target.ID)
		case KindAssertion:
			parents = append(parents, target.Assertion.Parent)
		}
	}
	return parents
}

// hasMeaningfulChildren reports whether anything points at the node or at
// one of its assertions with a non-structural edge.
func (b *Builder) hasMeaningfulChildren(n *Node) bool {
	targets := []string{n.ID}
	for _, e := range b.g.out[n.ID] {
		if e.Kind == EdgeContains {
			targets = append(targets, e.Target)
		}
	}
	for _, id := range targets {
		for _, e := range b.g.in[id] {
			if e.Kind != EdgeContains {
				return true
			}
		}
	}
	return false
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
