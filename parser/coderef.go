package parser

import (
	"regexp"
	"strings"

	"tracegraph/document"
	"tracegraph/ident"
)

// RefKind distinguishes the two reference keywords a source comment may
// carry.
type RefKind string

const (
	RefImplements RefKind = "implements"
	RefValidates  RefKind = "validates"
)

// CodeRefData is the structured payload of a code/test reference region:
// a single comment line declaring that the surrounding code implements or
// validates one or more entities.
type CodeRefData struct {
	Path string
	Line int
	Kind RefKind
	// Targets holds the referenced identifiers, multi-target syntax
	// expanded.
	Targets []string
}

// codeRefRe matches line comments (//, #, --, ;), block comment openers
// and continuations (/*, *), and markup comments (<!--) carrying an
// Implements:/Validates: keyword. The doubled-asterisk markdown field
// syntax (**Implements**:) deliberately does not match.
var codeRefRe = regexp.MustCompile(`(?://|#|--|;|/\*|<!--|^\s*\*)\s*(Implements|Validates):\s*(.+)$`)

// CodeRefParser recognizes traceability comments in arbitrary source-file
// syntax. Each matching line produces one single-line region; the builder
// keys the synthetic node by file path and line number.
type CodeRefParser struct {
	grammar *ident.Grammar
}

// NewCodeRefParser creates a code-reference parser bound to a grammar.
func NewCodeRefParser(g *ident.Grammar) *CodeRefParser {
	return &CodeRefParser{grammar: g}
}

func (p *CodeRefParser) Name() string { return "coderef" }

func (p *CodeRefParser) Priority() int { return 50 }

// Parse claims one single-line region per traceability comment.
func (p *CodeRefParser) Parse(ctx Context, lines []document.Line) ([]Region, error) {
	var regions []Region
	for _, line := range lines {
		m := codeRefRe.FindStringSubmatch(line.Text)
		if m == nil {
			continue
		}
		raw := strings.TrimSpace(m[2])
		raw = strings.TrimSuffix(raw, "*/")
		raw = strings.TrimSuffix(raw, "-->")
		var targets []string
		for _, target := range p.grammar.ExtractReferenceList(raw) {
			// Prose after the keyword is not a reference.
			if p.grammar.IsReference(target) {
				targets = append(targets, target)
			}
		}
		if len(targets) == 0 {
			continue
		}
		kind := RefImplements
		if m[1] == "Validates" {
			kind = RefValidates
		}
		regions = append(regions, Region{
			Type:      TypeCodeRef,
			StartLine: line.Number,
			EndLine:   line.Number,
			Text:      line.Text,
			Data: &CodeRefData{
				Path:    ctx.Path,
				Line:    line.Number,
				Kind:    kind,
				Targets: targets,
			},
		})
	}
	return regions, nil
}
