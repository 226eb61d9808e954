package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"tracegraph/document"
	"tracegraph/ident"
)

// TestStatus is the outcome of one test case.
type TestStatus string

const (
	StatusPassed  TestStatus = "passed"
	StatusFailed  TestStatus = "failed"
	StatusSkipped TestStatus = "skipped"
	StatusError   TestStatus = "error"
)

// maxFailureMessage caps the recorded failure detail.
const maxFailureMessage = 200

// TestResultData is the structured payload of one test-case region from a
// test-run export.
type TestResultData struct {
	Name     string
	Status   TestStatus
	Duration time.Duration
	// Message is the truncated failure detail, empty for passing tests.
	Message string
	// Targets holds requirement identifiers recovered from the test name.
	Targets []string
}

var resultLineRe = regexp.MustCompile(`^\s*--- (PASS|FAIL|SKIP|ERROR): (\S+) \(([0-9.]+)s\)\s*$`)

// TestResultParser deserializes go-test style run exports: one region per
// "--- STATUS: name (duration)" line, with the indented lines that follow
// a failure captured as its message.
type TestResultParser struct {
	grammar *ident.Grammar
}

// NewTestResultParser creates a test-result parser bound to a grammar.
func NewTestResultParser(g *ident.Grammar) *TestResultParser {
	return &TestResultParser{grammar: g}
}

func (p *TestResultParser) Name() string { return "testresult" }

// Priority runs before the requirement parser so report text containing
// identifier-shaped fragments is claimed first.
func (p *TestResultParser) Priority() int { return 20 }

// Parse claims one region per test case.
func (p *TestResultParser) Parse(ctx Context, lines []document.Line) ([]Region, error) {
	var regions []Region
	for i := 0; i < len(lines); {
		m := resultLineRe.FindStringSubmatch(lines[i].Text)
		if m == nil {
			i++
			continue
		}
		data := &TestResultData{
			Name:    m[2],
			Status:  statusFromToken(m[1]),
			Targets: p.targetsFromName(m[2]),
		}
		if secs, err := strconv.ParseFloat(m[3], 64); err == nil {
			data.Duration = time.Duration(secs * float64(time.Second))
		}

		end := i
		if data.Status == StatusFailed || data.Status == StatusError {
			var detail []string
			for j := i + 1; j < len(lines); j++ {
				text := lines[j].Text
				if resultLineRe.MatchString(text) || !strings.HasPrefix(text, " ") && !strings.HasPrefix(text, "\t") {
					break
				}
				detail = append(detail, strings.TrimSpace(text))
				end = j
			}
			data.Message = truncate(strings.Join(detail, " "), maxFailureMessage)
		}

		var sb strings.Builder
		for k := i; k <= end; k++ {
			if k > i {
				sb.WriteByte('\n')
			}
			sb.WriteString(lines[k].Text)
		}
		regions = append(regions, Region{
			Type:      TypeTestResult,
			StartLine: lines[i].Number,
			EndLine:   lines[end].Number,
			Text:      sb.String(),
			Data:      data,
		})
		i = end + 1
	}
	return regions, nil
}

// targetsFromName recovers requirement identifiers from a test name,
// tolerating the underscore-for-hyphen convention Go test names force
// (TestCheckout_REQ_p00001 references REQ-p00001).
func (p *TestResultParser) targetsFromName(name string) []string {
	found := p.grammar.FindAll(strings.ReplaceAll(name, "_", "-"))
	if len(found) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(found))
	var targets []string
	for _, id := range found {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	return targets
}

func statusFromToken(tok string) TestStatus {
	switch tok {
	case "PASS":
		return StatusPassed
	case "FAIL":
		return StatusFailed
	case "SKIP":
		return StatusSkipped
	default:
		return StatusError
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
