// Package parser partitions documents into typed regions using a
// priority-ordered set of line-claiming parsers. Each parser sees only the
// lines no earlier parser has claimed, so a cheap suppression pattern can
// shadow a more general entity parser without either knowing about the
// other.
package parser

import (
	"fmt"
	"log/slog"
	"sort"

	"tracegraph/document"
	"tracegraph/ident"
)

// ContentType tags the kind of content a region holds.
type ContentType string

const (
	TypeRequirement ContentType = "requirement"
	TypeJourney     ContentType = "journey"
	TypeCodeRef     ContentType = "code_reference"
	TypeTestResult  ContentType = "test_result"
	TypePlainText   ContentType = "plain_text"
	TypeRemainder   ContentType = "remainder"
)

// Region is a contiguous claimed range of document lines.
type Region struct {
	Type ContentType

	// StartLine and EndLine are inclusive 1-based line numbers.
	StartLine int
	EndLine   int

	// Text is the verbatim text of the claimed lines.
	Text string

	// Data holds the parser-specific structured payload
	// (*RequirementData, *JourneyData, ...).
	Data any
}

// Context carries per-document information into parsers.
type Context struct {
	// Path identifies the document being parsed.
	Path string
	// Config is an open per-document configuration map.
	Config map[string]any
}

// LineParser recognizes one textual shape. Parse receives the currently
// unclaimed lines, in order but not necessarily contiguous, and returns
// the regions it claims. A parser that cannot find the terminator of a
// multi-line construct must leave the construct unclaimed rather than
// guess an end line.
type LineParser interface {
	Name() string
	// Priority orders parsers; lower values run earlier.
	Priority() int
	Parse(ctx Context, lines []document.Line) ([]Region, error)
}

// Registry holds the parser set for a corpus and orchestrates the
// line-claiming pass over single documents.
type Registry struct {
	parsers []LineParser
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// NewDefaultRegistry creates a registry with the full default parser set:
// fixture suppression, test results, requirements, journeys, code
// references, and the remainder catch-all.
func NewDefaultRegistry(g *ident.Grammar, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewFixtureParser(g))
	r.Register(NewTestResultParser(g))
	r.Register(NewRequirementParser(g))
	r.Register(NewJourneyParser(g))
	r.Register(NewCodeRefParser(g))
	r.Register(NewRemainderParser())
	return r
}

// Register adds a parser, keeping the set sorted by ascending priority.
// Ties are broken by name so orchestration order is deterministic.
func (r *Registry) Register(p LineParser) {
	r.parsers = append(r.parsers, p)
	sort.SliceStable(r.parsers, func(i, j int) bool {
		if r.parsers[i].Priority() != r.parsers[j].Priority() {
			return r.parsers[i].Priority() < r.parsers[j].Priority()
		}
		return r.parsers[i].Name() < r.parsers[j].Name()
	})
}

// Parsers returns the registered parsers in run order.
func (r *Registry) Parsers() []LineParser {
	out := make([]LineParser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// Partition runs every registered parser over the document in priority
// order. Lines claimed by one parser are withheld from all later parsers.
// Returns the claimed regions sorted by start line, plus any lines no
// parser claimed.
func (r *Registry) Partition(doc *document.Document) ([]Region, []document.Line, error) {
	ctx := Context{Path: doc.Path, Config: doc.Config}
	unclaimed := make([]document.Line, len(doc.Lines))
	copy(unclaimed, doc.Lines)
	claimed := make(map[int]string, len(doc.Lines))

	var regions []Region
	for _, p := range r.parsers {
		if len(unclaimed) == 0 {
			break
		}
		found, err := p.Parse(ctx, unclaimed)
		if err != nil {
			return nil, nil, fmt.Errorf("parser %s on %s: %w", p.Name(), doc.Path, err)
		}
		for _, region := range found {
			if region.StartLine > region.EndLine {
				r.logger.Warn("dropping inverted region",
					slog.String("parser", p.Name()),
					slog.String("path", doc.Path),
					slog.Int("start", region.StartLine),
					slog.Int("end", region.EndLine))
				continue
			}
			if owner, overlap := r.overlaps(claimed, region); overlap {
				r.logger.Warn("dropping overlapping region",
					slog.String("parser", p.Name()),
					slog.String("owner", owner),
					slog.String("path", doc.Path),
					slog.Int("start", region.StartLine),
					slog.Int("end", region.EndLine))
				continue
			}
			for n := region.StartLine; n <= region.EndLine; n++ {
				claimed[n] = p.Name()
			}
			regions = append(regions, region)
		}
		unclaimed = withoutClaimed(unclaimed, claimed)
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].StartLine < regions[j].StartLine })
	return regions, unclaimed, nil
}

// overlaps reports whether any line of the region is already claimed, and
// by which parser.
func (r *Registry) overlaps(claimed map[int]string, region Region) (string, bool) {
	for n := region.StartLine; n <= region.EndLine; n++ {
		if owner, ok := claimed[n]; ok {
			return owner, true
		}
	}
	return "", false
}

func withoutClaimed(lines []document.Line, claimed map[int]string) []document.Line {
	out := lines[:0]
	for _, line := range lines {
		if _, ok := claimed[line.Number]; !ok {
			out = append(out, line)
		}
	}
	return out
}
