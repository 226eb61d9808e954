// Package document models the input corpus: UTF-8 text documents addressed
// by path, exposed to parsers as numbered lines.
package document

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Line is a single line of a document with its 1-based line number.
type Line struct {
	Number int
	Text   string
}

// Document is one input document: a path plus its lines.
type Document struct {
	// Path identifies the document; it is recorded on every node parsed
	// from it and is not required to exist on disk.
	Path string

	// Lines holds the document content in order, numbered from 1.
	Lines []Line

	// Config carries ad-hoc per-document parser configuration.
	Config map[string]any
}

// New builds a Document from raw content, splitting on \n and tolerating
// \r\n line endings.
func New(path, content string) *Document {
	raw := strings.Split(content, "\n")
	lines := make([]Line, 0, len(raw))
	for i, text := range raw {
		lines = append(lines, Line{Number: i + 1, Text: strings.TrimSuffix(text, "\r")})
	}
	return &Document{Path: path, Lines: lines}
}

// Load reads a document from disk.
func Load(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return New(path, string(content)), nil
}

// Text returns the verbatim text of the inclusive line range [start, end].
func (d *Document) Text(start, end int) string {
	var sb strings.Builder
	for _, line := range d.Lines {
		if line.Number < start || line.Number > end {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line.Text)
	}
	return sb.String()
}

// Discover resolves glob patterns (doublestar syntax, e.g. "docs/**/*.md")
// against the filesystem rooted at root and returns the matching paths,
// sorted and de-duplicated.
func Discover(root string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	fsys := os.DirFS(root)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
