package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegraph/document"
)

func parseRequirements(t *testing.T, content string) []Region {
	t.Helper()
	p := NewRequirementParser(testGrammar(t))
	doc := document.New("reqs.md", content)
	regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
	require.NoError(t, err)
	return regions
}

func TestRequirementBlock(t *testing.T) {
	regions := parseRequirements(t, `# REQ-o00002: Session handling
**Level**: Operational | **Status**: Active | **Implements**: REQ-p00001-A-B | **Refines**: -

The session layer keeps users logged in across restarts.

## Assertions
A. Sessions survive a process restart.
B. Idle sessions expire after 30 minutes
   of inactivity.

*End REQ-o00002* | **Hash**: deadbe12`)

	require.Len(t, regions, 1)
	region := regions[0]
	assert.Equal(t, TypeRequirement, region.Type)
	assert.Equal(t, 1, region.StartLine)
	assert.Equal(t, 11, region.EndLine)

	data, ok := region.Data.(*RequirementData)
	require.True(t, ok)
	assert.Equal(t, "REQ-o00002", data.ID)
	assert.Equal(t, "Session handling", data.Title)
	assert.Equal(t, "Operational", data.Level)
	assert.Equal(t, "Active", data.Status)
	assert.Equal(t, "deadbe12", data.Hash)
	assert.Equal(t, []string{"REQ-p00001-A", "REQ-p00001-B"}, data.Implements)
	assert.Empty(t, data.Refines, "no-ref token yields no references")

	require.Len(t, data.Assertions, 2)
	assert.Equal(t, "A", data.Assertions[0].Label)
	assert.Equal(t, "Sessions survive a process restart.", data.Assertions[0].Text)
	assert.Equal(t, "B", data.Assertions[1].Label)
	assert.Equal(t, "Idle sessions expire after 30 minutes\nof inactivity.", data.Assertions[1].Text)
}

func TestRequirementBlockEndsAtNextHeader(t *testing.T) {
	regions := parseRequirements(t, `# REQ-p00001: First
**Level**: PRD

# REQ-p00002: Second
**Level**: PRD`)

	require.Len(t, regions, 2)
	assert.Equal(t, 1, regions[0].StartLine)
	assert.Equal(t, 3, regions[0].EndLine)
	assert.Equal(t, 4, regions[1].StartLine)
	assert.Equal(t, 5, regions[1].EndLine)
}

func TestRequirementInvalidHeaderSkipped(t *testing.T) {
	regions := parseRequirements(t, `# REQ-q00001: Unknown type code
**Level**: PRD

# TODO: rework this section`)
	assert.Empty(t, regions)
}

func TestRequirementEndMarkerWithoutHash(t *testing.T) {
	regions := parseRequirements(t, `# REQ-d00003: Retry loop
**Level**: Development

*End REQ-d00003*
stray line after the marker`)

	require.Len(t, regions, 1)
	assert.Equal(t, 4, regions[0].EndLine, "block stops at the end marker")
	data := regions[0].Data.(*RequirementData)
	assert.Empty(t, data.Hash)
}

func TestRequirementNumericAssertionLabels(t *testing.T) {
	regions := parseRequirements(t, `# REQ-p00009: Numbered
**Level**: PRD

## Assertions
1. First numbered assertion.
12. Twelfth numbered assertion.

*End REQ-p00009*`)

	require.Len(t, regions, 1)
	data := regions[0].Data.(*RequirementData)
	require.Len(t, data.Assertions, 2)
	assert.Equal(t, "1", data.Assertions[0].Label)
	assert.Equal(t, "12", data.Assertions[1].Label)
}
