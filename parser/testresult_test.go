package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegraph/document"
)

func TestTestResultRun(t *testing.T) {
	p := NewTestResultParser(testGrammar(t))
	doc := document.New("results.txt", `=== RUN   TestCheckout
--- PASS: TestCheckout_REQ_p00001_A (0.02s)
--- FAIL: TestExpiry_REQ_o00002 (1.50s)
    session_test.go:42: session still alive after 31m
    expected expiry, got active
--- SKIP: TestUnrelated (0.00s)
PASS`)

	regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
	require.NoError(t, err)
	require.Len(t, regions, 3)

	pass := regions[0].Data.(*TestResultData)
	assert.Equal(t, "TestCheckout_REQ_p00001_A", pass.Name)
	assert.Equal(t, StatusPassed, pass.Status)
	assert.Equal(t, 20*time.Millisecond, pass.Duration)
	assert.Equal(t, []string{"REQ-p00001"}, pass.Targets)
	assert.Empty(t, pass.Message)

	fail := regions[1].Data.(*TestResultData)
	assert.Equal(t, StatusFailed, fail.Status)
	assert.Equal(t, 1500*time.Millisecond, fail.Duration)
	assert.Equal(t, []string{"REQ-o00002"}, fail.Targets)
	assert.Contains(t, fail.Message, "session still alive after 31m")
	assert.Contains(t, fail.Message, "expected expiry, got active")
	assert.Equal(t, 3, regions[1].StartLine)
	assert.Equal(t, 5, regions[1].EndLine, "indented detail belongs to the failure")

	skip := regions[2].Data.(*TestResultData)
	assert.Equal(t, StatusSkipped, skip.Status)
	assert.Empty(t, skip.Targets)
}

func TestTestResultMessageTruncation(t *testing.T) {
	p := NewTestResultParser(testGrammar(t))
	detail := "    " + strings.Repeat("x", 500)
	doc := document.New("results.txt", "--- FAIL: TestBig (0.10s)\n"+detail)

	regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	msg := regions[0].Data.(*TestResultData).Message
	assert.Len(t, msg, maxFailureMessage+len("..."))
	assert.True(t, strings.HasSuffix(msg, "..."))
}

func TestTestResultDuplicateTargetsDeduped(t *testing.T) {
	p := NewTestResultParser(testGrammar(t))
	doc := document.New("results.txt", "--- PASS: TestREQ_p00001_then_REQ_p00001_again (0.01s)")

	regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, []string{"REQ-p00001"}, regions[0].Data.(*TestResultData).Targets)
}
