package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tracegraph/coverage"
	"tracegraph/graph"
)

// WriteCoverage renders per-requirement coverage summaries.
func WriteCoverage(w io.Writer, summaries map[string]*coverage.Summary, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case FormatCSV:
		return writeCoverageCSV(w, summaries)
	case FormatMarkdown:
		return writeCoverageMarkdown(w, summaries)
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeCoverageMarkdown(w io.Writer, summaries map[string]*coverage.Summary) error {
	var sb strings.Builder
	sb.WriteString("# Coverage\n\n")
	sb.WriteString("| Requirement | Covered | Direct | Explicit | Inferred | Coverage | Gaps |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, id := range sortedIDs(summaries) {
		s := summaries[id]
		pct := "-"
		if s.Total > 0 {
			pct = fmt.Sprintf("%.2f%%", s.CoveragePct)
		}
		fmt.Fprintf(&sb, "| %s | %d/%d | %d | %d | %d | %s | %s |\n",
			s.RequirementID, s.Covered, s.Total, s.Direct, s.Explicit, s.Inferred, pct,
			strings.Join(s.Gaps, " "))
	}
	var failing []string
	for _, id := range sortedIDs(summaries) {
		if summaries[id].HasFailures {
			failing = append(failing, id)
		}
	}
	if len(failing) > 0 {
		sb.WriteString("\n## Requirements with failing tests\n\n")
		for _, id := range failing {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeCoverageCSV(w io.Writer, summaries map[string]*coverage.Summary) error {
	cw := csv.NewWriter(w)
	header := []string{"requirement", "total", "covered", "direct", "explicit", "inferred", "coverage_pct", "has_failures", "gaps"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, id := range sortedIDs(summaries) {
		s := summaries[id]
		row := []string{
			s.RequirementID,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Covered),
			strconv.Itoa(s.Direct),
			strconv.Itoa(s.Explicit),
			strconv.Itoa(s.Inferred),
			fmt.Sprintf("%.2f", s.CoveragePct),
			strconv.FormatBool(s.HasFailures),
			strings.Join(s.Gaps, " "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMatrix renders the traceability matrix: one row per entity with
// its relationships.
func WriteMatrix(w io.Writer, g *graph.Graph, format Format) error {
	type row struct {
		ID      string   `json:"id"`
		Kind    string   `json:"kind"`
		Label   string   `json:"label"`
		Source  string   `json:"source,omitempty"`
		Targets []string `json:"targets,omitempty"`
	}
	var rows []row
	for n := range g.AllNodes(graph.OrderIndex) {
		if n.Kind == graph.KindRemainder {
			continue
		}
		r := row{ID: n.ID, Kind: string(n.Kind), Label: n.Label}
		if n.Source != nil {
			r.Source = fmt.Sprintf("%s:%d", n.Source.Path, n.Source.StartLine)
		}
		for _, e := range g.OutEdges(n.ID) {
			if e.Kind == graph.EdgeContains {
				continue
			}
			r.Targets = append(r.Targets, fmt.Sprintf("%s:%s", e.Kind, e.Target))
		}
		rows = append(rows, r)
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"id", "kind", "label", "source", "targets"}); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write([]string{r.ID, r.Kind, r.Label, r.Source, strings.Join(r.Targets, " ")}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatMarkdown:
		var sb strings.Builder
		sb.WriteString("# Traceability Matrix\n\n")
		sb.WriteString("| ID | Kind | Label | Source | Relationships |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				r.ID, r.Kind, r.Label, r.Source, strings.Join(r.Targets, " "))
		}
		_, err := io.WriteString(w, sb.String())
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
