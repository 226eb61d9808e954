package parser

import (
	"regexp"
	"strings"

	"tracegraph/document"
)

// JourneyData is the structured payload of a user-journey region.
type JourneyData struct {
	ID              string
	Title           string
	Actor           string
	Goal            string
	Context         string
	ExpectedOutcome string
	Steps           []string
	// Addresses holds requirement identifiers referenced by the journey.
	Addresses []string
}

var (
	journeyHeaderRe = regexp.MustCompile(`^#+\s*(JNY-[A-Za-z0-9-]*[0-9]+):\s*(.+?)\s*$`)
	journeyFieldRe  = regexp.MustCompile(`^\*\*(Actor|Goal|Context|Expected Outcome|Addresses)\*\*:\s*(.*)$`)
	journeyStepRe   = regexp.MustCompile(`^\s*(?:[0-9]+\.|[-*])\s+(.+)$`)
	journeyEndRe    = regexp.MustCompile(`^\*End[^*]*JNY-[^*]*\*\s*$`)
	topHeaderRe     = regexp.MustCompile(`^#\s+`)
)

// JourneyParser recognizes user-journey narratives: a JNY- header followed
// by Actor/Goal/Context/Expected Outcome fields and a numbered or bulleted
// Steps list, terminated by the next top-level header or an end marker.
type JourneyParser struct {
	refs RefExtractor
}

// RefExtractor extracts requirement references from a raw field value.
// Satisfied by *ident.Grammar.
type RefExtractor interface {
	ExtractReferenceList(raw string) []string
}

// NewJourneyParser creates a journey parser. refs may be nil, in which
// case Addresses fields are ignored.
func NewJourneyParser(refs RefExtractor) *JourneyParser {
	return &JourneyParser{refs: refs}
}

func (p *JourneyParser) Name() string { return "journey" }

func (p *JourneyParser) Priority() int { return 40 }

// Parse claims one region per journey block found in the visible lines.
func (p *JourneyParser) Parse(ctx Context, lines []document.Line) ([]Region, error) {
	var regions []Region
	for i := 0; i < len(lines); {
		m := journeyHeaderRe.FindStringSubmatch(lines[i].Text)
		if m == nil {
			i++
			continue
		}
		end := p.blockEnd(lines, i)
		regions = append(regions, p.parseBlock(lines[i:end+1], m[1], m[2]))
		i = end + 1
	}
	return regions, nil
}

func (p *JourneyParser) blockEnd(lines []document.Line, start int) int {
	for j := start + 1; j < len(lines); j++ {
		text := strings.TrimSpace(lines[j].Text)
		if journeyEndRe.MatchString(text) {
			return j
		}
		if topHeaderRe.MatchString(lines[j].Text) || journeyHeaderRe.MatchString(lines[j].Text) {
			return j - 1
		}
	}
	return len(lines) - 1
}

func (p *JourneyParser) parseBlock(lines []document.Line, id, title string) Region {
	data := &JourneyData{ID: id, Title: title}

	inSteps := false
	for _, line := range lines[1:] {
		text := strings.TrimSpace(line.Text)
		if m := journeyFieldRe.FindStringSubmatch(text); m != nil {
			inSteps = false
			value := strings.TrimSpace(m[2])
			switch m[1] {
			case "Actor":
				data.Actor = value
			case "Goal":
				data.Goal = value
			case "Context":
				data.Context = value
			case "Expected Outcome":
				data.ExpectedOutcome = value
			case "Addresses":
				if p.refs != nil {
					data.Addresses = p.refs.ExtractReferenceList(value)
				}
			}
			continue
		}
		if strings.HasPrefix(text, "**Steps**:") {
			inSteps = true
			continue
		}
		if inSteps {
			if m := journeyStepRe.FindStringSubmatch(line.Text); m != nil {
				data.Steps = append(data.Steps, m[1])
			} else if text != "" {
				inSteps = false
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
		Type:      TypeJourney,
		StartLine: lines[0].Number,
		EndLine:   lines[len(lines)-1].Number,
		Text:      sb.String(),
		Data:      data,
	}
}
