package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"tracegraph/export"
)

// rebuildDebounce coalesces editor write bursts into one rebuild.
const rebuildDebounce = 300 * time.Millisecond

// newWatchCmd rebuilds the graph whenever a corpus document changes and
// prints a fresh validation summary.
func newWatchCmd(loadConfig configFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild and re-validate on document changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch every directory under the corpus root; fsnotify does
			// not recurse on its own.
			err = filepath.WalkDir(cfg.Corpus.Root, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					if d.Name() == ".git" {
						return filepath.SkipDir
					}
					return watcher.Add(path)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("watch corpus root: %w", err)
			}

			rebuild := func() {
				g, err := buildGraph(cfg, logger, nil)
				if err != nil {
					logger.Error("rebuild failed", slog.String("error", err.Error()))
					return
				}
				v := export.NewValidation(g)
				if v.Clean() {
					fmt.Printf("ok: %d nodes, %d edges\n", v.Nodes, v.Edges)
					return
				}
				fmt.Printf("issues: %d broken, %d orphans, %d conflicts, %d drifted\n",
					len(v.Broken), len(v.Orphans), len(v.Conflicts), len(v.Drift))
			}

			rebuild()
			logger.Info("watching corpus", slog.String("root", cfg.Corpus.Root))

			var timer *time.Timer
			pending := make(chan struct{}, 1)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
						continue
					}
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(rebuildDebounce, func() {
						select {
						case pending <- struct{}{}:
						default:
						}
					})
				case <-pending:
					rebuild()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watch error", slog.String("error", err.Error()))
				}
			}
		},
	}
	return cmd
}
