// Package coverage aggregates, per requirement, which assertions are
// covered, by what kind of evidence, and with what confidence.
package coverage

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"tracegraph/graph"
)

// Tier is a confidence tier for a coverage contribution, strongest first.
type Tier string

const (
	// TierDirect: a test or code node validates/implements the specific
	// assertion.
	TierDirect Tier = "direct"
	// TierExplicit: another requirement implements the specific
	// assertion via a targeted edge.
	TierExplicit Tier = "explicit"
	// TierInferred: an untargeted edge on the parent requirement is
	// interpreted as claiming all of its assertions.
	TierInferred Tier = "inferred"
)

// Contribution is one piece of evidence that an assertion is covered.
type Contribution struct {
	SourceID string
	Tier     Tier
	Label    string
}

// AssertionCoverage is the evidence collected for one assertion.
type AssertionCoverage struct {
	NodeID        string
	Label         string
	Contributions []Contribution
	// Passing and Failing count test-result contributors by outcome.
	Passing int
	Failing int
}

// Covered reports whether at least one contribution of any tier exists.
func (a *AssertionCoverage) Covered() bool { return len(a.Contributions) > 0 }

// Summary is the finalized per-requirement rollup.
type Summary struct {
	RequirementID string
	Total         int
	Covered       int
	Direct        int
	Explicit      int
	Inferred      int
	// CoveragePct is covered/total*100, rounded to two decimals. Zero
	// when the requirement has no assertions.
	CoveragePct float64
	// HasFailures is set when any assertion has a failing or erroring
	// test result.
	HasFailures bool
	// PassingAssertions and FailingAssertions count assertions with at
	// least one passing (respectively failing/erroring) test result.
	PassingAssertions int
	FailingAssertions int
	// Gaps lists the labels of uncovered assertions.
	Gaps []string

	Assertions []AssertionCoverage
}

// Engine computes coverage rollups over a built graph.
type Engine struct {
	// InferInherited controls the inferred tier: when false, an
	// untargeted edge on a parent requirement does not count any of its
	// assertions as covered.
	InferInherited bool

	logger *slog.Logger
}

// NewEngine creates an engine with the inferred tier enabled.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{InferInherited: true, logger: logger}
}

// Rollup computes a summary for every requirement in the graph. The
// computation reads only graph structure, so running it twice on an
// unmodified graph yields identical results.
func (e *Engine) Rollup(g *graph.Graph) map[string]*Summary {
	summaries := make(map[string]*Summary)
	for _, req := range g.NodesByKind(graph.KindRequirement) {
		summaries[req.ID] = e.rollupRequirement(g, req)
	}
	return summaries
}

// Annotate runs the rollup and writes each summary into its requirement
// node's metrics map.
func (e *Engine) Annotate(g *graph.Graph) map[string]*Summary {
	summaries := e.Rollup(g)
	for id, s := range summaries {
		req, ok := g.FindByID(id)
		if !ok {
			continue
		}
		req.SetMetric("coverage_total", s.Total)
		req.SetMetric("coverage_covered", s.Covered)
		req.SetMetric("coverage_pct", s.CoveragePct)
		req.SetMetric("coverage_direct", s.Direct)
		req.SetMetric("coverage_explicit", s.Explicit)
		req.SetMetric("coverage_inferred", s.Inferred)
		req.SetMetric("has_failures", s.HasFailures)
		req.SetMetric("coverage_gaps", append([]string(nil), s.Gaps...))
	}
	return summaries
}

func (e *Engine) rollupRequirement(g *graph.Graph, req *graph.Node) *Summary {
	assertions := g.Assertions(req.ID)
	byLabel := make(map[string]*AssertionCoverage, len(assertions))
	order := make([]string, 0, len(assertions))
	for _, a := range assertions {
		byLabel[a.Assertion.Label] = &AssertionCoverage{NodeID: a.ID, Label: a.Assertion.Label}
		order = append(order, a.Assertion.Label)
	}

	// Per-assertion contributions: targeted edges on the assertion node.
	for _, a := range assertions {
		ac := byLabel[a.Assertion.Label]
		for _, edge := range g.InEdges(a.ID) {
			if !edge.Kind.CountsTowardCoverage() {
				continue
			}
			source, ok := g.FindByID(edge.Source)
			if !ok {
				continue
			}
			tier, counts := tierFor(source.Kind, true)
			if !counts {
				continue
			}
			e.contribute(ac, source, tier)
		}
	}

	// Untargeted edges on the parent requirement claim every assertion,
	// at inferred confidence.
	if e.InferInherited {
		for _, edge := range g.InEdges(req.ID) {
			if !edge.Kind.CountsTowardCoverage() || edge.Targeted() {
				continue
			}
			source, ok := g.FindByID(edge.Source)
			if !ok {
				continue
			}
			if _, counts := tierFor(source.Kind, false); !counts {
				continue
			}
			for _, label := range order {
				e.contribute(byLabel[label], source, TierInferred)
			}
		}
	}

	return finalize(req.ID, order, byLabel)
}

// tierFor maps a contributing node kind to its confidence tier. targeted
// distinguishes edges on the assertion itself from edges on the parent.
func tierFor(kind graph.NodeKind, targeted bool) (Tier, bool) {
	switch kind {
	case graph.KindTest, graph.KindCode, graph.KindTestResult:
		if targeted {
			return TierDirect, true
		}
		return TierInferred, true
	case graph.KindRequirement:
		if targeted {
			return TierExplicit, true
		}
		return TierInferred, true
	default:
		return "", false
	}
}

func (e *Engine) contribute(ac *AssertionCoverage, source *graph.Node, tier Tier) {
	ac.Contributions = append(ac.Contributions, Contribution{
		SourceID: source.ID,
		Tier:     tier,
		Label:    ac.Label,
	})
	if source.Kind == graph.KindTestResult && source.TestResult != nil {
		switch source.TestResult.Status {
		case "passed":
			ac.Passing++
		case "failed", "error":
			ac.Failing++
		}
	}
}

// finalize recomputes every aggregate from the full contribution set.
// Counters are never adjusted incrementally, so re-running the rollup can
// never drift.
func finalize(reqID string, order []string, byLabel map[string]*AssertionCoverage) *Summary {
	s := &Summary{RequirementID: reqID, Total: len(order)}
	for _, label := range order {
		ac := byLabel[label]
		s.Assertions = append(s.Assertions, *ac)
		if !ac.Covered() {
			s.Gaps = append(s.Gaps, label)
			continue
		}
		s.Covered++
		switch bestTier(ac.Contributions) {
		case TierDirect:
			s.Direct++
		case TierExplicit:
			s.Explicit++
		case TierInferred:
			s.Inferred++
		}
		if ac.Passing > 0 {
			s.PassingAssertions++
		}
		if ac.Failing > 0 {
			s.FailingAssertions++
			s.HasFailures = true
		}
	}
	sort.Strings(s.Gaps)
	if s.Total > 0 {
		s.CoveragePct = math.Round(float64(s.Covered)/float64(s.Total)*100*100) / 100
	}
	return s
}

// bestTier returns the strongest tier present.
func bestTier(contributions []Contribution) Tier {
	best := TierInferred
	for _, c := range contributions {
		switch c.Tier {
		case TierDirect:
			return TierDirect
		case TierExplicit:
			best = TierExplicit
		}
	}
	return best
}

// String renders a one-line summary for logs and reports.
func (s *Summary) String() string {
	return fmt.Sprintf("%s: %d/%d covered (%.2f%%)", s.RequirementID, s.Covered, s.Total, s.CoveragePct)
}
