// Package config provides configuration loading and management for
// tracegraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tracegraph/contenthash"
	"tracegraph/ident"
)

// Config represents the complete tracegraph configuration.
type Config struct {
	Corpus     CorpusConfig   `yaml:"corpus"`
	Identifier ident.Config   `yaml:"identifier"`
	Hash       HashConfig     `yaml:"hash"`
	Coverage   CoverageConfig `yaml:"coverage"`
}

// CorpusConfig configures document discovery.
type CorpusConfig struct {
	// Root is the corpus root path (auto-detected from git if empty).
	Root string `yaml:"root"`
	// Patterns are doublestar globs, relative to Root.
	Patterns []string `yaml:"patterns"`
	// Repo optionally tags nodes with an originating-repository name.
	Repo string `yaml:"repo"`
}

// HashConfig configures content hashing.
type HashConfig struct {
	// Algorithm is one of sha256, sha1, md5.
	Algorithm string `yaml:"algorithm"`
	// Length is the number of hex characters kept (default 8).
	Length int `yaml:"length"`
}

// CoverageConfig configures the rollup engine.
type CoverageConfig struct {
	// InferInherited enables the inferred tier: an untargeted edge on a
	// parent requirement claims all of its assertions.
	InferInherited *bool `yaml:"infer_inherited"`
}

// InferInheritedEnabled resolves the toggle, defaulting to true.
func (c CoverageConfig) InferInheritedEnabled() bool {
	return c.InferInherited == nil || *c.InferInherited
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root:     "", // Auto-detect
			Patterns: []string{"**/*.md"},
		},
		Identifier: ident.DefaultConfig(),
		Hash: HashConfig{
			Algorithm: string(contenthash.SHA256),
			Length:    contenthash.DefaultLength,
		},
		Coverage: CoverageConfig{},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Corpus.Patterns) == 0 {
		return fmt.Errorf("corpus.patterns is required")
	}
	if _, err := ident.Compile(c.Identifier); err != nil {
		return err
	}
	if _, err := contenthash.New(contenthash.Algorithm(c.Hash.Algorithm), c.Hash.Length); err != nil {
		return err
	}
	return nil
}

// Grammar compiles the identifier configuration.
func (c *Config) Grammar() (*ident.Grammar, error) {
	return ident.Compile(c.Identifier)
}

// Hasher builds the configured content hasher.
func (c *Config) Hasher() (*contenthash.Hasher, error) {
	return contenthash.New(contenthash.Algorithm(c.Hash.Algorithm), c.Hash.Length)
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Corpus.Root != "" {
		c.Corpus.Root = other.Corpus.Root
	}
	if len(other.Corpus.Patterns) > 0 {
		c.Corpus.Patterns = other.Corpus.Patterns
	}
	if other.Corpus.Repo != "" {
		c.Corpus.Repo = other.Corpus.Repo
	}

	if other.Identifier.Prefix != "" {
		c.Identifier = other.Identifier
	}

	if other.Hash.Algorithm != "" {
		c.Hash.Algorithm = other.Hash.Algorithm
	}
	if other.Hash.Length != 0 {
		c.Hash.Length = other.Hash.Length
	}

	if other.Coverage.InferInherited != nil {
		c.Coverage.InferInherited = other.Coverage.InferInherited
	}
}
