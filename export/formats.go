// Package export renders the graph's query surface (validation reports,
// coverage summaries, and the traceability matrix) in the supported
// output formats.
package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format identifies an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatMarkdown: {
		Name:        FormatMarkdown,
		MIMEType:    "text/markdown",
		Extension:   ".md",
		Description: "Markdown tables and sections",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "JSON - machine-readable report",
	},
	FormatCSV: {
		Name:        FormatCSV,
		MIMEType:    "text/csv",
		Extension:   ".csv",
		Description: "CSV - one row per entity",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat resolves a format name, accepting common aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown format %q (supported: %s)", name, strings.Join(FormatNames(), ", "))
}

// FormatNames returns the supported format names, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for name := range FormatRegistry {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
