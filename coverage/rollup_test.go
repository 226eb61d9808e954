package coverage

import (
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegraph/contenthash"
	"tracegraph/document"
	"tracegraph/graph"
	"tracegraph/ident"
	"tracegraph/parser"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildGraph(t *testing.T, docs map[string]string) *graph.Graph {
	t.Helper()
	grammar, err := ident.Compile(ident.DefaultConfig())
	require.NoError(t, err)
	hasher, err := contenthash.New(contenthash.SHA256, contenthash.DefaultLength)
	require.NoError(t, err)

	registry := parser.NewDefaultRegistry(grammar, testLogger())
	b := graph.NewBuilder(grammar, hasher, testLogger())

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

const coveredCorpus = `# REQ-p00001: Checkout
**Level**: PRD

## Assertions
A. The cart total is correct.
B. Payment is captured once.
C. A receipt is issued.

*End REQ-p00001*`

func TestRollupTiers(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": coveredCorpus,
		"ops.md": `# REQ-o00001: Payment capture
**Level**: Operational | **Implements**: REQ-p00001-B
*End REQ-o00001*`,
		"checkout_test.go": `// Validates: REQ-p00001-A`,
	})

	summaries := NewEngine(testLogger()).Rollup(g)
	s, ok := summaries["REQ-p00001"]
	require.True(t, ok)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Covered)
	assert.Equal(t, 1, s.Direct, "test comment targets assertion A")
	assert.Equal(t, 1, s.Explicit, "child requirement targets assertion B")
	assert.Equal(t, 0, s.Inferred)
	assert.Equal(t, 66.67, s.CoveragePct)
	assert.Equal(t, []string{"C"}, s.Gaps)
	assert.False(t, s.HasFailures)
}

func TestRollupInferredTier(t *testing.T) {
	docs := map[string]string{
		"prd.md": coveredCorpus,
		"ops.md": `# REQ-o00001: Whole implementation
**Level**: Operational | **Implements**: REQ-p00001
*End REQ-o00001*`,
	}

	g := buildGraph(t, docs)
	e := NewEngine(testLogger())
	s := e.Rollup(g)["REQ-p00001"]
	assert.Equal(t, 3, s.Covered)
	assert.Equal(t, 3, s.Inferred)
	assert.Equal(t, 100.0, s.CoveragePct)
	assert.Empty(t, s.Gaps)

	// Strict mode: untargeted parent edges claim nothing.
	e.InferInherited = false
	s = e.Rollup(g)["REQ-p00001"]
	assert.Equal(t, 0, s.Covered)
	assert.Equal(t, 0.0, s.CoveragePct)
	assert.Equal(t, []string{"A", "B", "C"}, s.Gaps)
}

// A targeted contribution outranks an inferred one on the same assertion.
func TestRollupBestTierWins(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": coveredCorpus,
		"ops.md": `# REQ-o00001: Whole implementation
**Level**: Operational | **Implements**: REQ-p00001
*End REQ-o00001*`,
		"checkout_test.go": `// Validates: REQ-p00001-A`,
	})

	s := NewEngine(testLogger()).Rollup(g)["REQ-p00001"]
	assert.Equal(t, 3, s.Covered)
	assert.Equal(t, 1, s.Direct)
	assert.Equal(t, 2, s.Inferred)

	for _, ac := range s.Assertions {
		if ac.Label == "A" {
			assert.Len(t, ac.Contributions, 2, "direct plus inferred evidence")
		}
	}
}

func TestRollupTestResultOutcomes(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": `# REQ-p00001: Checkout
**Level**: PRD

## Assertions
A. The cart total is correct.

*End REQ-p00001*`,
		"results.txt": `--- PASS: TestTotals_REQ_p00001 (0.01s)
--- FAIL: TestRounding_REQ_p00001 (0.02s)
    totals_test.go:10: off by one cent`,
	})

	s := NewEngine(testLogger()).Rollup(g)["REQ-p00001"]
	assert.Equal(t, 1, s.Covered)
	assert.Equal(t, 1, s.Inferred, "test results name the requirement, not the assertion")
	assert.True(t, s.HasFailures)
	assert.Equal(t, 1, s.PassingAssertions)
	assert.Equal(t, 1, s.FailingAssertions)
}

func TestRollupNoAssertions(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": `# REQ-p00001: Bare
**Level**: PRD
*End REQ-p00001*`,
	})

	s := NewEngine(testLogger()).Rollup(g)["REQ-p00001"]
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.CoveragePct)
	assert.Empty(t, s.Gaps)
}

// Re-running the rollup on an unmodified graph yields identical results.
func TestRollupIdempotent(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": coveredCorpus,
		"ops.md": `# REQ-o00001: Payment capture
**Level**: Operational | **Implements**: REQ-p00001-B
*End REQ-o00001*`,
	})

	e := NewEngine(testLogger())
	first := e.Rollup(g)
	second := e.Rollup(g)
	assert.Equal(t, first, second)
}

func TestAnnotateWritesMetrics(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"prd.md": coveredCorpus,
		"checkout_test.go": `// Validates: REQ-p00001-A`,
	})

	NewEngine(testLogger()).Annotate(g)

	req, ok := g.FindByID("REQ-p00001")
	require.True(t, ok)
	pct, ok := req.Metric("coverage_pct")
	require.True(t, ok)
	assert.Equal(t, 33.33, pct)
	gaps, ok := req.Metric("coverage_gaps")
	require.True(t, ok)
	assert.Equal(t, []string{"B", "C"}, gaps)
}
