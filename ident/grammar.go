// Package ident compiles a declarative identifier configuration into a
// grammar that validates, parses, and formats entity identifiers, and
// expands compact multi-target reference syntax.
package ident

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// NumberingStyle selects how the numeric component of an identifier is written.
type NumberingStyle string

const (
	// StyleNumeric is a digit run, optionally zero-padded to a fixed width.
	StyleNumeric NumberingStyle = "numeric"
	// StyleNamed is a free-form name (letters, digits, underscores, hyphens).
	StyleNamed NumberingStyle = "named"
	// StyleAlphanumeric is a mixed letter/digit run.
	StyleAlphanumeric NumberingStyle = "alphanumeric"
)

// TypeDef describes one entity type recognized by the grammar.
type TypeDef struct {
	// Code is the short code embedded in identifiers (e.g. "p").
	Code string `yaml:"code"`
	// Name is the human-readable type name (e.g. "PRD").
	Name string `yaml:"name"`
	// Level is the hierarchy level, 0 being the topmost.
	Level int `yaml:"level"`
}

// Numbering configures the {id} component.
type Numbering struct {
	Style      NumberingStyle `yaml:"style"`
	Digits     int            `yaml:"digits"`
	ZeroPadded bool           `yaml:"zero_padded"`
	// Pattern overrides the derived regexp for the {id} component.
	Pattern string `yaml:"pattern,omitempty"`
}

// Namespace configures the optional {associated} component, a short code
// naming the repository or subsystem an entity belongs to.
type Namespace struct {
	Enabled   bool   `yaml:"enabled"`
	Length    int    `yaml:"length"`
	Separator string `yaml:"separator"`
}

// Expansion configures compact multi-target reference expansion
// ("REQ-p00001-A-B-C" meaning assertions A, B and C of REQ-p00001).
// Named identifier styles can disable it to avoid false positives when a
// base identifier's own tail looks like a label run.
type Expansion struct {
	Enabled      bool `yaml:"enabled"`
	LetterLabels bool `yaml:"letter_labels"`
	DigitLabels  bool `yaml:"digit_labels"`
}

// Config declares the shape of entity identifiers.
type Config struct {
	// Template arranges the components. Placeholders: {prefix}, {associated},
	// {type}, {id}. Everything else is literal.
	Template string `yaml:"template"`
	// Prefix is the literal identifier prefix (e.g. "REQ").
	Prefix string `yaml:"prefix"`
	// Types maps type name to its definition.
	Types map[string]TypeDef `yaml:"types"`

	Numbering Numbering `yaml:"numbering"`
	Namespace Namespace `yaml:"namespace"`
	Expansion Expansion `yaml:"expansion"`

	// NoRefTokens are literal field values meaning "no reference".
	NoRefTokens []string `yaml:"no_ref_tokens"`
}

// DefaultConfig returns the grammar for the default requirement ID shape:
// REQ-p00001, REQ-CAL-d00027.
func DefaultConfig() Config {
	return Config{
		Template: "{prefix}-{associated}{type}{id}",
		Prefix:   "REQ",
		Types: map[string]TypeDef{
			"prd": {Code: "p", Name: "PRD", Level: 0},
			"ops": {Code: "o", Name: "Operational", Level: 1},
			"dev": {Code: "d", Name: "Development", Level: 2},
		},
		Numbering: Numbering{Style: StyleNumeric, Digits: 5, ZeroPadded: true},
		Namespace: Namespace{Enabled: true, Length: 3, Separator: "-"},
		Expansion: Expansion{Enabled: true, LetterLabels: true, DigitLabels: true},
		NoRefTokens: []string{"-", "null", "none", "x", "X", "N/A", "n/a"},
	}
}

// Components is the result of parsing an identifier.
type Components struct {
	Prefix    string
	Namespace string
	Type      string // type code, e.g. "p"
	Number    string // verbatim number/name component
}

// Grammar is a compiled identifier configuration.
type Grammar struct {
	cfg        Config
	re         *regexp.Regexp
	findRe     *regexp.Regexp
	typeByCode map[string]TypeDef
	noRef      map[string]struct{}
	topLevel   int
}

// letterLabel matches a single-uppercase-letter assertion label.
var letterLabel = regexp.MustCompile(`^[A-Z]$`)

// digitLabel matches a 1-2 digit assertion label.
var digitLabel = regexp.MustCompile(`^[0-9]{1,2}$`)

// Compile builds a Grammar from its configuration.
func Compile(cfg Config) (*Grammar, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("identifier config: prefix is required")
	}
	if len(cfg.Types) == 0 {
		return nil, fmt.Errorf("identifier config: at least one type is required")
	}
	if cfg.Template == "" {
		return nil, fmt.Errorf("identifier config: template is required")
	}

	g := &Grammar{
		cfg:        cfg,
		typeByCode: make(map[string]TypeDef, len(cfg.Types)),
		noRef:      make(map[string]struct{}, len(cfg.NoRefTokens)),
		topLevel:   -1,
	}
	for name, def := range cfg.Types {
		if def.Code == "" {
			return nil, fmt.Errorf("identifier config: type %q has no code", name)
		}
		if other, dup := g.typeByCode[def.Code]; dup {
			return nil, fmt.Errorf("identifier config: type code %q used by %q and %q", def.Code, other.Name, def.Name)
		}
		g.typeByCode[def.Code] = def
		if g.topLevel == -1 || def.Level < g.topLevel {
			g.topLevel = def.Level
		}
	}
	for _, tok := range cfg.NoRefTokens {
		g.noRef[strings.ToLower(tok)] = struct{}{}
	}

	pattern, err := buildPattern(cfg, g.typeByCode)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("identifier config: compile pattern: %w", err)
	}
	g.re = re
	// Unanchored variant for scanning free text.
	g.findRe, err = regexp.Compile(strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$"))
	if err != nil {
		return nil, fmt.Errorf("identifier config: compile find pattern: %w", err)
	}
	return g, nil
}

// buildPattern translates the template into an anchored regexp with named
// capture groups for each component.
func buildPattern(cfg Config, types map[string]TypeDef) (string, error) {
	codes := make([]string, 0, len(types))
	for code := range types {
		codes = append(codes, regexp.QuoteMeta(code))
	}
	// Longest first so "dev" style multi-char codes win over prefixes of
	// themselves.
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) > len(codes[j])
		}
		return codes[i] < codes[j]
	})

	idPattern := cfg.Numbering.Pattern
	if idPattern == "" {
		switch cfg.Numbering.Style {
		case StyleNumeric:
			if cfg.Numbering.ZeroPadded && cfg.Numbering.Digits > 0 {
				idPattern = fmt.Sprintf(`[0-9]{%d}`, cfg.Numbering.Digits)
			} else {
				idPattern = `[0-9]+`
			}
		case StyleNamed:
			idPattern = `[A-Za-z][A-Za-z0-9_]*`
		case StyleAlphanumeric:
			idPattern = `[A-Za-z0-9]+`
		default:
			return "", fmt.Errorf("identifier config: unknown numbering style %q", cfg.Numbering.Style)
		}
	}

	nsPattern := ""
	if cfg.Namespace.Enabled {
		length := cfg.Namespace.Length
		if length <= 0 {
			length = 3
		}
		nsPattern = fmt.Sprintf(`(?:(?P<ns>[A-Z0-9]{%d})%s)?`, length, regexp.QuoteMeta(cfg.Namespace.Separator))
	}

	var sb strings.Builder
	sb.WriteString(`^`)
	rest := cfg.Template
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open == -1 {
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		sb.WriteString(regexp.QuoteMeta(rest[:open]))
		end := strings.IndexByte(rest[open:], '}')
		if end == -1 {
			return "", fmt.Errorf("identifier config: unclosed placeholder in template %q", cfg.Template)
		}
		placeholder := rest[open+1 : open+end]
		rest = rest[open+end+1:]
		switch placeholder {
		case "prefix":
			sb.WriteString(`(?P<prefix>` + regexp.QuoteMeta(cfg.Prefix) + `)`)
		case "associated":
			sb.WriteString(nsPattern)
		case "type":
			sb.WriteString(`(?P<type>` + strings.Join(codes, "|") + `)`)
		case "id":
			sb.WriteString(`(?P<id>` + idPattern + `)`)
		default:
			return "", fmt.Errorf("identifier config: unknown placeholder {%s}", placeholder)
		}
	}
	sb.WriteString(`$`)
	return sb.String(), nil
}

// Parse splits an identifier into its components. The second return value
// is false when the string does not match the grammar.
func (g *Grammar) Parse(s string) (Components, bool) {
	m := g.re.FindStringSubmatch(s)
	if m == nil {
		return Components{}, false
	}
	var c Components
	for i, name := range g.re.SubexpNames() {
		if i == 0 || i >= len(m) {
			continue
		}
		switch name {
		case "prefix":
			c.Prefix = m[i]
		case "ns":
			c.Namespace = m[i]
		case "type":
			c.Type = m[i]
		case "id":
			c.Number = m[i]
		}
	}
	return c, true
}

// FindAll returns every identifier-shaped substring of free text, in
// order of appearance.
func (g *Grammar) FindAll(text string) []string {
	return g.findRe.FindAllString(text, -1)
}

// IsValid reports whether s is a well-formed identifier.
func (g *Grammar) IsValid(s string) bool {
	return g.re.MatchString(s)
}

// Format renders an identifier from its components, applying the configured
// zero-padding. number is the verbatim number/name component; numeric styles
// accept unpadded input.
func (g *Grammar) Format(typeCode, number, namespace string) (string, error) {
	if _, ok := g.typeByCode[typeCode]; !ok {
		return "", fmt.Errorf("unknown type code %q", typeCode)
	}
	if g.cfg.Numbering.Style == StyleNumeric && g.cfg.Numbering.ZeroPadded && g.cfg.Numbering.Digits > 0 {
		if len(number) < g.cfg.Numbering.Digits {
			number = strings.Repeat("0", g.cfg.Numbering.Digits-len(number)) + number
		}
	}
	assoc := ""
	if namespace != "" {
		if !g.cfg.Namespace.Enabled {
			return "", fmt.Errorf("namespace %q given but namespaces are disabled", namespace)
		}
		assoc = namespace + g.cfg.Namespace.Separator
	}
	r := strings.NewReplacer(
		"{prefix}", g.cfg.Prefix,
		"{associated}", assoc,
		"{type}", typeCode,
		"{id}", number,
	)
	id := r.Replace(g.cfg.Template)
	if !g.IsValid(id) {
		return "", fmt.Errorf("formatted identifier %q does not match grammar", id)
	}
	return id, nil
}

// Level returns the hierarchy level of an identifier's type. The second
// return value is false for identifiers that do not parse.
func (g *Grammar) Level(id string) (int, bool) {
	c, ok := g.Parse(id)
	if !ok {
		return 0, false
	}
	def, ok := g.typeByCode[c.Type]
	if !ok {
		return 0, false
	}
	return def.Level, true
}

// IsTopLevel reports whether the identifier belongs to the topmost
// configured hierarchy level.
func (g *Grammar) IsTopLevel(id string) bool {
	level, ok := g.Level(id)
	return ok && level == g.topLevel
}

// TypeName returns the display name for an identifier's type.
func (g *Grammar) TypeName(id string) string {
	c, ok := g.Parse(id)
	if !ok {
		return ""
	}
	return g.typeByCode[c.Type].Name
}

// IsNoRef reports whether a raw field value is a configured
// "no reference" token.
func (g *Grammar) IsNoRef(value string) bool {
	_, ok := g.noRef[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// ExtractReferenceList splits a comma-separated reference field, drops
// "no reference" tokens, and expands compact multi-target suffix syntax
// into one fully-qualified identifier per target.
func (g *Grammar) ExtractReferenceList(raw string) []string {
	var refs []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || g.IsNoRef(part) {
			continue
		}
		base, labels := g.SplitTargets(part)
		if len(labels) == 0 {
			refs = append(refs, base)
			continue
		}
		for _, label := range labels {
			refs = append(refs, base+"-"+label)
		}
	}
	return refs
}

// IsReference reports whether s is a plausible reference: a valid bare
// identifier or a valid identifier carrying assertion-label suffixes.
// Free prose never qualifies.
func (g *Grammar) IsReference(s string) bool {
	if g.IsValid(s) {
		return true
	}
	_, labels := g.SplitTargets(s)
	return len(labels) > 0
}

// SplitTargets separates a reference into its base identifier and any
// trailing assertion-label run. "REQ-p00001-A-B-C" yields base "REQ-p00001"
// and labels [A B C]. References that are already valid identifiers, or
// whose tail never reduces to a valid identifier, are returned unchanged
// with no labels.
func (g *Grammar) SplitTargets(ref string) (string, []string) {
	if !g.cfg.Expansion.Enabled || g.IsValid(ref) {
		return ref, nil
	}
	base := ref
	var labels []string
	for {
		cut := strings.LastIndexByte(base, '-')
		if cut <= 0 {
			return ref, nil
		}
		tail := base[cut+1:]
		if !g.isLabel(tail) {
			return ref, nil
		}
		labels = append([]string{tail}, labels...)
		base = base[:cut]
		if g.IsValid(base) {
			return base, labels
		}
	}
}

func (g *Grammar) isLabel(s string) bool {
	if g.cfg.Expansion.LetterLabels && letterLabel.MatchString(s) {
		return true
	}
	if g.cfg.Expansion.DigitLabels && digitLabel.MatchString(s) {
		return true
	}
	return false
}
