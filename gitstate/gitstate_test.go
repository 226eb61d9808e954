package gitstate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegraph/graph"
	"tracegraph/parser"
)

func TestParsePorcelain(t *testing.T) {
	state := parsePorcelain(` M docs/prd.md
A  docs/new.md
?? scratch.md
R  docs/old.md -> docs/renamed.md

`)

	_, ok := state.Modified["docs/prd.md"]
	assert.True(t, ok)
	_, ok = state.Modified["docs/new.md"]
	assert.True(t, ok)
	_, ok = state.Modified["docs/renamed.md"]
	assert.True(t, ok, "rename keeps the new path")
	_, ok = state.Untracked["scratch.md"]
	assert.True(t, ok)
	assert.Len(t, state.Modified, 3)
	assert.Len(t, state.Untracked, 1)
}

func TestPathState(t *testing.T) {
	state := parsePorcelain(` M docs/prd.md
?? scratch.md`)

	modified, untracked := state.PathState("docs/prd.md")
	assert.True(t, modified)
	assert.False(t, untracked)

	modified, untracked = state.PathState("scratch.md")
	assert.False(t, modified)
	assert.True(t, untracked)

	modified, untracked = state.PathState("clean.md")
	assert.False(t, modified)
	assert.False(t, untracked)
}

func TestAnnotate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := graph.NewBuilder(nil, nil, logger)
	require.NoError(t, b.AddRegions("docs/prd.md", "", []parser.Region{{
		Type:      parser.TypeRemainder,
		StartLine: 1,
		EndLine:   1,
		Text:      "prose",
	}}))
	require.NoError(t, b.AddRegions("docs/clean.md", "", []parser.Region{{
		Type:      parser.TypeRemainder,
		StartLine: 1,
		EndLine:   1,
		Text:      "prose",
	}}))
	g, err := b.Build()
	require.NoError(t, err)

	state := parsePorcelain(` M docs/prd.md`)
	state.Annotate(g)

	dirty, ok := g.FindByID("docs/prd.md:1")
	require.True(t, ok)
	v, has := dirty.Metric("git_modified")
	require.True(t, has)
	assert.Equal(t, true, v)

	clean, ok := g.FindByID("docs/clean.md:1")
	require.True(t, ok)
	_, has = clean.Metric("git_modified")
	assert.False(t, has)
}
