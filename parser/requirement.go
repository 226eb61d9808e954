package parser

import (
	"regexp"
	"strings"

	"tracegraph/document"
	"tracegraph/ident"
)

// Assertion is one labeled normative sub-statement of a requirement.
type Assertion struct {
	Label string
	Text  string
}

// RequirementData is the structured payload of a requirement region.
type RequirementData struct {
	ID     string
	Title  string
	Level  string
	Status string
	// Hash is the recorded content hash from the end marker, if present.
	Hash string
	// Implements and Refines hold fully-qualified references with
	// compact multi-target syntax already expanded.
	Implements []string
	Refines    []string
	Assertions []Assertion
}

var (
	headerRe     = regexp.MustCompile(`^#*\s*([^\s:]+):\s*(.+?)\s*$`)
	metaFieldRe  = regexp.MustCompile(`\*\*(\w+)\*\*:\s*([^|]*)`)
	assertRe     = regexp.MustCompile(`^\s*([A-Z]|[0-9]{1,2})\.\s+(.+)$`)
	assertHeadRe = regexp.MustCompile(`^##+\s*Assertions\s*$`)
	endMarkerRe  = regexp.MustCompile(`^\*End[^*]*\*\s*(?:\|\s*\*\*Hash\*\*:\s*([0-9a-fA-F]+))?\s*$`)
)

// RequirementParser recognizes requirement blocks: a header line whose
// identifier matches the configured grammar, scanned forward to an end
// marker or the next valid requirement header.
type RequirementParser struct {
	grammar *ident.Grammar
}

// NewRequirementParser creates a requirement parser bound to a grammar.
func NewRequirementParser(g *ident.Grammar) *RequirementParser {
	return &RequirementParser{grammar: g}
}

func (p *RequirementParser) Name() string { return "requirement" }

// Priority places requirements after fixture suppression and test-result
// parsing so example text never masquerades as a real entity.
func (p *RequirementParser) Priority() int { return 30 }

// Parse claims one region per requirement block found in the visible lines.
func (p *RequirementParser) Parse(ctx Context, lines []document.Line) ([]Region, error) {
	var regions []Region
	for i := 0; i < len(lines); {
		id, title, ok := p.header(lines[i].Text)
		if !ok {
			i++
			continue
		}
		end := p.blockEnd(lines, i)
		regions = append(regions, p.parseBlock(lines[i:end+1], id, title))
		i = end + 1
	}
	return regions, nil
}

// header matches the generic header shape and validates the identifier
// against the grammar. Headers with invalid identifiers are skipped
// entirely so their lines fall through to remainder handling.
func (p *RequirementParser) header(text string) (id, title string, ok bool) {
	m := headerRe.FindStringSubmatch(text)
	if m == nil || !p.grammar.IsValid(m[1]) {
		return "", "", false
	}
	return m[1], m[2], true
}

// blockEnd returns the index of the block's last line: the end marker or
// the line before the next valid requirement header, or the final visible
// line.
func (p *RequirementParser) blockEnd(lines []document.Line, start int) int {
	for j := start + 1; j < len(lines); j++ {
		if endMarkerRe.MatchString(strings.TrimSpace(lines[j].Text)) {
			return j
		}
		if _, _, ok := p.header(lines[j].Text); ok {
			return j - 1
		}
	}
	return len(lines) - 1
}

func (p *RequirementParser) parseBlock(lines []document.Line, id, title string) Region {
	data := &RequirementData{ID: id, Title: title}

	inAssertions := false
	for _, line := range lines[1:] {
		text := strings.TrimSpace(line.Text)
		switch {
		case endMarkerRe.MatchString(text):
			if m := endMarkerRe.FindStringSubmatch(text); m[1] != "" {
				data.Hash = m[1]
			}
			inAssertions = false
		case assertHeadRe.MatchString(text):
			inAssertions = true
		case strings.HasPrefix(text, "#"):
			inAssertions = false
		case strings.Contains(text, "**Level**:"):
			p.parseMetadata(text, data)
		case inAssertions:
			if m := assertRe.FindStringSubmatch(line.Text); m != nil {
				data.Assertions = append(data.Assertions, Assertion{Label: m[1], Text: m[2]})
			} else if text != "" && len(data.Assertions) > 0 {
				// Continuation of a multi-line assertion.
				last := &data.Assertions[len(data.Assertions)-1]
				last.Text += "\n" + text
			}
		}
	}

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line.Text)
	}
	return Region{
		Type:      TypeRequirement,
		StartLine: lines[0].Number,
		EndLine:   lines[len(lines)-1].Number,
		Text:      sb.String(),
		Data:      data,
	}
}

// parseMetadata reads the |-separated **Field**: value line.
func (p *RequirementParser) parseMetadata(text string, data *RequirementData) {
	for _, m := range metaFieldRe.FindAllStringSubmatch(text, -1) {
		value := strings.TrimSpace(m[2])
		switch m[1] {
		case "Level":
			data.Level = value
		case "Status":
			data.Status = value
		case "Implements":
			data.Implements = p.grammar.ExtractReferenceList(value)
		case "Refines":
			data.Refines = p.grammar.ExtractReferenceList(value)
		}
	}
}
