package parser

import (
	"strings"

	"tracegraph/document"
)

// RemainderParser is the catch-all: it claims contiguous runs of
// non-blank lines no earlier parser wanted, one region per run. Blank
// lines stay unclaimed.
type RemainderParser struct{}

// NewRemainderParser creates the catch-all parser.
func NewRemainderParser() *RemainderParser {
	return &RemainderParser{}
}

func (p *RemainderParser) Name() string { return "remainder" }

func (p *RemainderParser) Priority() int { return 90 }

// Parse claims every contiguous non-blank run of visible lines.
func (p *RemainderParser) Parse(ctx Context, lines []document.Line) ([]Region, error) {
	var regions []Region
	var run []document.Line
	flush := func() {
		if len(run) == 0 {
			return
		}
		var sb strings.Builder
		for i, line := range run {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line.Text)
		}
		regions = append(regions, Region{
			Type:      TypeRemainder,
			StartLine: run[0].Number,
			EndLine:   run[len(run)-1].Number,
			Text:      sb.String(),
		})
		run = nil
	}
	prev := 0
	for _, line := range lines {
		if strings.TrimSpace(line.Text) == "" || (prev != 0 && line.Number != prev+1) {
			flush()
		}
		if strings.TrimSpace(line.Text) != "" {
			run = append(run, line)
		}
		prev = line.Number
	}
	flush()
	return regions, nil
}
