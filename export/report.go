package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"tracegraph/graph"
)

// HashDrift records a requirement whose recorded end-marker hash no
// longer matches the recomputed hash of its assertion content.
type HashDrift struct {
	RequirementID string `json:"requirement_id"`
	Recorded      string `json:"recorded"`
	Computed      string `json:"computed"`
}

// Validation is the full build report: everything a human needs to
// resolve before the corpus is consistent.
type Validation struct {
	Nodes     int                     `json:"nodes"`
	Edges     int                     `json:"edges"`
	Broken    []graph.BrokenReference `json:"broken_references,omitempty"`
	Orphans   []string                `json:"orphans,omitempty"`
	Conflicts []graph.Conflict        `json:"conflicts,omitempty"`
	Drift     []HashDrift             `json:"hash_drift,omitempty"`
}

// Clean reports whether the validation found no issues.
func (v *Validation) Clean() bool {
	return len(v.Broken) == 0 && len(v.Orphans) == 0 && len(v.Conflicts) == 0 && len(v.Drift) == 0
}

// NewValidation gathers the validation report from a built graph.
func NewValidation(g *graph.Graph) *Validation {
	v := &Validation{
		Nodes:     g.Len(),
		Edges:     len(g.Edges()),
		Broken:    g.BrokenReferences(),
		Conflicts: g.Conflicts(),
	}
	for _, n := range g.OrphanedNodes() {
		v.Orphans = append(v.Orphans, n.ID)
	}
	for _, req := range g.NodesByKind(graph.KindRequirement) {
		f := req.Requirement
		if f.RecordedHash == "" || f.ContentHash == "" {
			continue
		}
		if !strings.EqualFold(f.RecordedHash, f.ContentHash) {
			v.Drift = append(v.Drift, HashDrift{
				RequirementID: req.ID,
				Recorded:      f.RecordedHash,
				Computed:      f.ContentHash,
			})
		}
	}
	return v
}

// WriteValidation renders the validation report.
func WriteValidation(w io.Writer, v *Validation, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatCSV:
		return writeValidationCSV(w, v)
	case FormatMarkdown:
		return writeValidationMarkdown(w, v)
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeValidationMarkdown(w io.Writer, v *Validation) error {
	var sb strings.Builder
	sb.WriteString("# Validation Report\n\n")
	fmt.Fprintf(&sb, "- Nodes: %d\n- Edges: %d\n\n", v.Nodes, v.Edges)
	if v.Clean() {
		sb.WriteString("No issues found.\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}
	if len(v.Broken) > 0 {
		sb.WriteString("## Broken references\n\n")
		for _, b := range v.Broken {
			fmt.Fprintf(&sb, "- `%s` -[%s]-> `%s` (target missing)\n", b.SourceID, b.Kind, b.TargetID)
		}
		sb.WriteString("\n")
	}
	if len(v.Orphans) > 0 {
		sb.WriteString("## Orphans\n\n")
		for _, id := range v.Orphans {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
		sb.WriteString("\n")
	}
	if len(v.Conflicts) > 0 {
		sb.WriteString("## Duplicate identifiers\n\n")
		for _, c := range v.Conflicts {
			fmt.Fprintf(&sb, "- `%s` (duplicate retained as `%s`)\n", c.ID, c.Alias)
		}
		sb.WriteString("\n")
	}
	if len(v.Drift) > 0 {
		sb.WriteString("## Hash drift\n\n")
		for _, d := range v.Drift {
			fmt.Fprintf(&sb, "- `%s`: recorded %s, computed %s\n", d.RequirementID, d.Recorded, d.Computed)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeValidationCSV(w io.Writer, v *Validation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"issue", "entity", "detail"}); err != nil {
		return err
	}
	for _, b := range v.Broken {
		if err := cw.Write([]string{"broken_reference", b.SourceID, fmt.Sprintf("%s -> %s", b.Kind, b.TargetID)}); err != nil {
			return err
		}
	}
	for _, id := range v.Orphans {
		if err := cw.Write([]string{"orphan", id, ""}); err != nil {
			return err
		}
	}
	for _, c := range v.Conflicts {
		if err := cw.Write([]string{"duplicate_identifier", c.ID, c.Alias}); err != nil {
			return err
		}
	}
	for _, d := range v.Drift {
		if err := cw.Write([]string{"hash_drift", d.RequirementID, fmt.Sprintf("recorded %s computed %s", d.Recorded, d.Computed)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// sortedIDs returns map keys in identifier order.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
