// Package commands implements the tracegraph CLI subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tracegraph/config"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd(version, buildTime string) *cobra.Command {
	var (
		root     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "tracegraph",
		Short: "Requirement traceability graph compiler",
		Long: `Tracegraph compiles a corpus of text documents (requirements,
journeys, code, test results) into a traceability graph, resolves
cross-document references, and reports coverage and consistency.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&root, "root", "", "Corpus root (default: auto-detect git root)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	loadConfig := func() (*config.Config, *slog.Logger, error) {
		logger := newLogger(logLevel)
		cfg, err := config.NewLoader(logger).Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		if root != "" {
			cfg.Corpus.Root = root
		}
		return cfg, logger, nil
	}

	cmd.AddCommand(newCheckCmd(loadConfig))
	cmd.AddCommand(newCoverageCmd(loadConfig))
	cmd.AddCommand(newExportCmd(loadConfig))
	cmd.AddCommand(newIDsCmd(loadConfig))
	cmd.AddCommand(newWatchCmd(loadConfig))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tracegraph version %s (build: %s)\n", version, buildTime)
		},
	})

	return cmd
}

// configFunc loads configuration and the logger for a subcommand run.
type configFunc func() (*config.Config, *slog.Logger, error)

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}
