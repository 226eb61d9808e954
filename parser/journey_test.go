package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegraph/document"
)

func TestJourneyBlock(t *testing.T) {
	p := NewJourneyParser(testGrammar(t))
	doc := document.New("journeys.md", `## JNY-004: Recover a forgotten password
**Actor**: Registered user
**Goal**: Regain account access
**Context**: The user has lost their password
**Expected Outcome**: The user is signed in with a new password
**Addresses**: REQ-p00001, REQ-o00002-A
**Steps**:
1. Request a reset link
2. Open the emailed link
- Choose a new password

*End JNY-004*`)

	regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	data, ok := regions[0].Data.(*JourneyData)
	require.True(t, ok)
	assert.Equal(t, "JNY-004", data.ID)
	assert.Equal(t, "Recover a forgotten password", data.Title)
	assert.Equal(t, "Registered user", data.Actor)
	assert.Equal(t, "Regain account access", data.Goal)
	assert.Equal(t, "The user has lost their password", data.Context)
	assert.Equal(t, "The user is signed in with a new password", data.ExpectedOutcome)
	assert.Equal(t, []string{"REQ-p00001", "REQ-o00002-A"}, data.Addresses)
	assert.Equal(t, []string{
		"Request a reset link",
		"Open the emailed link",
		"Choose a new password",
	}, data.Steps)
}

func TestJourneyEndsAtTopLevelHeader(t *testing.T) {
	p := NewJourneyParser(testGrammar(t))
	doc := document.New("journeys.md", `## JNY-001: First
**Actor**: A

# Unrelated chapter
prose`)

	regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, 3, regions[0].EndLine)
}

func TestJourneyNilRefExtractor(t *testing.T) {
	p := NewJourneyParser(nil)
	doc := document.New("journeys.md", `## JNY-002: No refs
**Addresses**: REQ-p00001`)

	regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Empty(t, regions[0].Data.(*JourneyData).Addresses)
}
