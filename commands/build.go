package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"tracegraph/config"
	"tracegraph/document"
	"tracegraph/graph"
	"tracegraph/parser"
)

// buildGraph discovers the corpus (or uses the explicitly given paths,
// relative to the corpus root), partitions every document, and builds the
// resolved graph.
func buildGraph(cfg *config.Config, logger *slog.Logger, paths []string) (*graph.Graph, error) {
	grammar, err := cfg.Grammar()
	if err != nil {
		return nil, err
	}
	hasher, err := cfg.Hasher()
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		paths, err = document.Discover(cfg.Corpus.Root, cfg.Corpus.Patterns)
		if err != nil {
			return nil, fmt.Errorf("discover corpus: %w", err)
		}
	}
	logger.Debug("corpus discovered", slog.Int("documents", len(paths)))

	registry := parser.NewDefaultRegistry(grammar, logger)
	builder := graph.NewBuilder(grammar, hasher, logger)

	for _, path := range paths {
		doc, err := document.Load(filepath.Join(cfg.Corpus.Root, path))
		if err != nil {
			return nil, err
		}
		// Nodes carry the repo-relative path.
		doc.Path = filepath.ToSlash(path)

		regions, unclaimed, err := registry.Partition(doc)
		if err != nil {
			return nil, err
		}
		if len(unclaimed) > 0 {
			logger.Debug("unclaimed lines",
				slog.String("path", doc.Path),
				slog.Int("count", len(unclaimed)))
		}
		if err := builder.AddRegions(doc.Path, cfg.Corpus.Repo, regions); err != nil {
			return nil, err
		}
	}

	return builder.Build()
}
