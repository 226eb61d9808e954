package commands

import (
	"os"

	"github.com/spf13/cobra"

	"tracegraph/coverage"
	"tracegraph/export"
)

// newCoverageCmd prints per-requirement coverage rollups with gap lists.
func newCoverageCmd(loadConfig configFunc) *cobra.Command {
	var (
		format string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "coverage [paths...]",
		Short: "Report assertion coverage per requirement",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			g, err := buildGraph(cfg, logger, args)
			if err != nil {
				return err
			}

			engine := coverage.NewEngine(logger)
			engine.InferInherited = cfg.Coverage.InferInheritedEnabled()
			if strict {
				engine.InferInherited = false
			}
			summaries := engine.Annotate(g)

			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return export.WriteCoverage(os.Stdout, summaries, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format (markdown, json, csv)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Disable the inferred coverage tier")
	return cmd
}
