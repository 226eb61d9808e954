package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegraph/contenthash"
	"tracegraph/coverage"
	"tracegraph/document"
	"tracegraph/graph"
	"tracegraph/ident"
	"tracegraph/parser"
)

func buildGraph(t *testing.T, docs map[string]string) *graph.Graph {
	t.Helper()
	grammar, err := ident.Compile(ident.DefaultConfig())
	require.NoError(t, err)
	hasher, err := contenthash.New(contenthash.SHA256, contenthash.DefaultLength)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := parser.NewDefaultRegistry(grammar, logger)
	b := graph.NewBuilder(grammar, hasher, logger)

	paths := make([]string, 0, len(docs))
	for path := range docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		doc := document.New(path, docs[path])
		regions, _, err := registry.Partition(doc)
		require.NoError(t, err)
		require.NoError(t, b.AddRegions(path, "", regions))
	}
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestValidationClean(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": `# REQ-p00001: Clean
**Level**: PRD
*End REQ-p00001*`,
	})

	v := NewValidation(g)
	assert.True(t, v.Clean())
	assert.Equal(t, 1, v.Nodes)
	assert.Equal(t, 0, v.Edges)

	var buf bytes.Buffer
	require.NoError(t, WriteValidation(&buf, v, FormatMarkdown))
	assert.Contains(t, buf.String(), "No issues found.")
}

func TestValidationFindsIssues(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"ops.md": `# REQ-o00001: Dangling
**Level**: Operational | **Implements**: REQ-MISSING
*End REQ-o00001*`,
	})

	v := NewValidation(g)
	assert.False(t, v.Clean())
	require.Len(t, v.Broken, 1)
	assert.Equal(t, "REQ-MISSING", v.Broken[0].TargetID)
	assert.Equal(t, []string{"REQ-o00001"}, v.Orphans)

	var buf bytes.Buffer
	require.NoError(t, WriteValidation(&buf, v, FormatMarkdown))
	out := buf.String()
	assert.Contains(t, out, "## Broken references")
	assert.Contains(t, out, "## Orphans")
	assert.Contains(t, out, "REQ-MISSING")
}

func TestValidationHashDrift(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": `# REQ-p00001: Drifted
**Level**: PRD

## Assertions
A. The recorded hash is stale.

*End REQ-p00001* | **Hash**: 00000000`,
	})

	v := NewValidation(g)
	require.Len(t, v.Drift, 1)
	assert.Equal(t, "REQ-p00001", v.Drift[0].RequirementID)
	assert.Equal(t, "00000000", v.Drift[0].Recorded)
	assert.NotEqual(t, v.Drift[0].Recorded, v.Drift[0].Computed)
}

// A matching recorded hash produces no drift entry, regardless of hex
// case.
func TestValidationHashMatch(t *testing.T) {
	hasher, err := contenthash.New(contenthash.SHA256, contenthash.DefaultLength)
	require.NoError(t, err)
	digest := hasher.HashNormalized([]string{"The recorded hash is fresh."})

	g := buildGraph(t, map[string]string{
		"prd.md": `# REQ-p00001: Fresh
**Level**: PRD

## Assertions
A. The recorded hash is fresh.

*End REQ-p00001* | **Hash**: ` + strings.ToUpper(digest),
	})

	v := NewValidation(g)
	assert.Empty(t, v.Drift)
}

func TestWriteValidationJSONAndCSV(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"ops.md": `# REQ-o00001: Dangling
**Level**: Operational | **Implements**: REQ-MISSING
*End REQ-o00001*`,
	})
	v := NewValidation(g)

	var buf bytes.Buffer
	require.NoError(t, WriteValidation(&buf, v, FormatJSON))
	var decoded Validation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, v.Orphans, decoded.Orphans)

	buf.Reset()
	require.NoError(t, WriteValidation(&buf, v, FormatCSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(records), 3, "header, broken reference, orphan")
	assert.Equal(t, []string{"issue", "entity", "detail"}, records[0])
}

func TestWriteMatrix(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": `# REQ-p00001: Root
**Level**: PRD
*End REQ-p00001*`,
		"ops.md": `# REQ-o00001: Child
**Level**: Operational | **Implements**: REQ-p00001
*End REQ-o00001*`,
		"notes.md": "free prose",
	})

	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, g, FormatMarkdown))
	out := buf.String()
	assert.Contains(t, out, "| REQ-o00001 | requirement | Child | ops.md:1 | implements:REQ-p00001 |")
	assert.NotContains(t, out, "notes.md", "remainder nodes are excluded")

	buf.Reset()
	require.NoError(t, WriteMatrix(&buf, g, FormatJSON))
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Len(t, rows, 2)
}

func TestWriteCoverageFormats(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": `# REQ-p00001: Checkout
**Level**: PRD

## Assertions
A. The cart total is correct.
B. Payment is captured once.

*End REQ-p00001*`,
		"checkout_test.go": `// Validates: REQ-p00001-A`,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	summaries := coverage.NewEngine(logger).Rollup(g)

	var buf bytes.Buffer
	require.NoError(t, WriteCoverage(&buf, summaries, FormatMarkdown))
	out := buf.String()
	assert.Contains(t, out, "| REQ-p00001 | 1/2 | 1 | 0 | 0 | 50.00% | B |")

	buf.Reset()
	require.NoError(t, WriteCoverage(&buf, summaries, FormatCSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "50.00", records[1][6])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	info, ok := GetFormatInfo(FormatCSV)
	require.True(t, ok)
	assert.Equal(t, ".csv", info.Extension)
	assert.Equal(t, []string{"csv", "json", "markdown"}, FormatNames())
}
