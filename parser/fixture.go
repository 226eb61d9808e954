package parser

import (
	"regexp"
	"strings"

	"tracegraph/document"
	"tracegraph/ident"
)

var heredocRe = regexp.MustCompile(`<<-?'?([A-Z_][A-Z0-9_]*)'?\s*$`)

// FixtureParser claims multi-line string literals (triple-quoted blocks
// and shell/ruby heredocs) that contain identifier-shaped text, so that
// example requirements embedded in test fixtures are never parsed as real
// entities. It runs before every entity parser. Literals without
// identifier-shaped content are left unclaimed, as are literals whose
// closing delimiter is missing.
type FixtureParser struct {
	grammar *ident.Grammar
}

// NewFixtureParser creates a fixture-suppression parser bound to a grammar.
func NewFixtureParser(g *ident.Grammar) *FixtureParser {
	return &FixtureParser{grammar: g}
}

func (p *FixtureParser) Name() string { return "fixture" }

func (p *FixtureParser) Priority() int { return 10 }

// Parse claims opaque plain-text regions for suppressed literals.
func (p *FixtureParser) Parse(ctx Context, lines []document.Line) ([]Region, error) {
	var regions []Region
	for i := 0; i < len(lines); {
		end, ok := p.literalEnd(lines, i)
		if !ok {
			i++
			continue
		}
		block := lines[i : end+1]
		if !p.containsIdentifier(block) {
			i = end + 1
			continue
		}
		var sb strings.Builder
		for k, line := range block {
			if k > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line.Text)
		}
		regions = append(regions, Region{
			Type:      TypePlainText,
			StartLine: block[0].Number,
			EndLine:   block[len(block)-1].Number,
			Text:      sb.String(),
		})
		i = end + 1
	}
	return regions, nil
}

// literalEnd detects a multi-line literal opening at index i and returns
// the index of its closing line. Unterminated literals report false so
// the lines stay unclaimed.
func (p *FixtureParser) literalEnd(lines []document.Line, i int) (int, bool) {
	text := lines[i].Text

	for _, quote := range []string{`"""`, `'''`} {
		if strings.Count(text, quote)%2 == 1 {
			for j := i + 1; j < len(lines); j++ {
				if strings.Contains(lines[j].Text, quote) {
					return j, true
				}
			}
			return 0, false
		}
	}

	if m := heredocRe.FindStringSubmatch(text); m != nil {
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j].Text) == m[1] {
				return j, true
			}
		}
		return 0, false
	}

	return 0, false
}

// containsIdentifier checks the literal body (excluding the opener line)
// for identifier-shaped text.
func (p *FixtureParser) containsIdentifier(block []document.Line) bool {
	for _, line := range block[1:] {
		if len(p.grammar.FindAll(line.Text)) > 0 {
			return true
		}
	}
	return false
}
