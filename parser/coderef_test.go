package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegraph/document"
)

func TestCodeRefCommentStyles(t *testing.T) {
	p := NewCodeRefParser(testGrammar(t))

	tests := []struct {
		name    string
		line    string
		kind    RefKind
		targets []string
	}{
		{"go line comment", "// Implements: REQ-p00001", RefImplements, []string{"REQ-p00001"}},
		{"python comment", "# Validates: REQ-o00002-A", RefValidates, []string{"REQ-o00002-A"}},
		{"sql comment", "-- Implements: REQ-d00003", RefImplements, []string{"REQ-d00003"}},
		{"lisp comment", "; Validates: REQ-p00001", RefValidates, []string{"REQ-p00001"}},
		{"block comment", "/* Implements: REQ-p00001 */", RefImplements, []string{"REQ-p00001"}},
		{"html comment", "<!-- Validates: REQ-p00001 -->", RefValidates, []string{"REQ-p00001"}},
		{"multi target", "// Validates: REQ-p00001-A-B", RefValidates, []string{"REQ-p00001-A", "REQ-p00001-B"}},
		{"comma list", "// Implements: REQ-p00001, REQ-o00002", RefImplements, []string{"REQ-p00001", "REQ-o00002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New("src/main.go", tt.line)
			regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
			require.NoError(t, err)
			require.Len(t, regions, 1)

			data := regions[0].Data.(*CodeRefData)
			assert.Equal(t, "src/main.go", data.Path)
			assert.Equal(t, 1, data.Line)
			assert.Equal(t, tt.kind, data.Kind)
			assert.Equal(t, tt.targets, data.Targets)
		})
	}
}

func TestCodeRefIgnoresNonComments(t *testing.T) {
	p := NewCodeRefParser(testGrammar(t))

	tests := []struct {
		name string
		line string
	}{
		{"markdown metadata field", "**Implements**: REQ-p00001"},
		{"no keyword", "// see REQ-p00001"},
		{"no-ref token only", "// Implements: -"},
		{"no valid targets", "// Validates: nothing yet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New("src/main.go", tt.line)
			regions, err := p.Parse(Context{Path: doc.Path}, doc.Lines)
			require.NoError(t, err)
			assert.Empty(t, regions)
		})
	}
}
