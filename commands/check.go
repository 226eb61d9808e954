package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracegraph/export"
	"tracegraph/gitstate"
)

// newCheckCmd builds the corpus graph and prints the validation report:
// broken references, orphans, duplicate identifiers, and hash drift.
func newCheckCmd(loadConfig configFunc) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Build the graph and report consistency issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			g, err := buildGraph(cfg, logger, args)
			if err != nil {
				return err
			}

			// Git state is advisory; a corpus outside a repository is fine.
			if state, err := gitstate.NewExecutor(cfg.Corpus.Root).Snapshot(cmd.Context()); err == nil {
				state.Annotate(g)
			} else {
				logger.Debug("git state unavailable", "error", err)
			}

			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			validation := export.NewValidation(g)
			if err := export.WriteValidation(os.Stdout, validation, f); err != nil {
				return err
			}
			if !validation.Clean() {
				issues := len(validation.Broken) + len(validation.Orphans) + len(validation.Conflicts) + len(validation.Drift)
				return fmt.Errorf("validation found %d issue(s)", issues)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format (markdown, json, csv)")
	return cmd
}
