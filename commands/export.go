package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracegraph/export"
)

// newExportCmd writes the traceability matrix.
func newExportCmd(loadConfig configFunc) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export [paths...]",
		Short: "Export the traceability matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			g, err := buildGraph(cfg, logger, args)
			if err != nil {
				return err
			}

			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer file.Close()
				w = file
			}
			return export.WriteMatrix(w, g, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format (markdown, json, csv)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	return cmd
}
