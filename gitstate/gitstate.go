// Package gitstate queries git repository state and annotates graph
// nodes whose source documents have uncommitted changes, so reports can
// flag potentially stale entities and hashes.
package gitstate

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"tracegraph/graph"
)

// State is a snapshot of the working tree relative to HEAD.
type State struct {
	Branch    string
	Modified  map[string]struct{}
	Untracked map[string]struct{}
}

// Executor runs git queries against one repository.
type Executor struct {
	repoRoot string
}

// NewExecutor creates an executor rooted at repoRoot.
func NewExecutor(repoRoot string) *Executor {
	return &Executor{repoRoot: repoRoot}
}

// Snapshot queries the current branch and the modified/untracked paths.
func (e *Executor) Snapshot(ctx context.Context) (*State, error) {
	branch, err := e.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("query branch: %w", err)
	}

	porcelain, err := e.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}

	state := parsePorcelain(porcelain)
	state.Branch = strings.TrimSpace(branch)
	return state, nil
}

// parsePorcelain reads `git status --porcelain` output into a State
// without a branch.
func parsePorcelain(porcelain string) *State {
	state := &State{
		Modified:  make(map[string]struct{}),
		Untracked: make(map[string]struct{}),
	}
	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 4 {
			continue
		}
		status, path := line[:2], strings.TrimSpace(line[3:])
		// Renames are reported as "old -> new"; keep the new path.
		if idx := strings.Index(path, " -> "); idx != -1 {
			path = path[idx+4:]
		}
		if status == "??" {
			state.Untracked[path] = struct{}{}
		} else {
			state.Modified[path] = struct{}{}
		}
	}
	return state
}

// BranchDiffFiles returns the paths changed between the given base branch
// and HEAD.
func (e *Executor) BranchDiffFiles(ctx context.Context, base string) ([]string, error) {
	out, err := e.run(ctx, "diff", "--name-only", base+"...HEAD")
	if err != nil {
		return nil, fmt.Errorf("query branch diff: %w", err)
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func (e *Executor) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// Annotate writes git_modified/git_untracked flags into the metrics of
// every node whose source document has uncommitted changes, and records
// the branch on the graph's root requirement metrics.
func (s *State) Annotate(g *graph.Graph) {
	for n := range g.AllNodes(graph.OrderIndex) {
		if n.Source == nil {
			continue
		}
		modified, untracked := s.PathState(n.Source.Path)
		if modified {
			n.SetMetric("git_modified", true)
		}
		if untracked {
			n.SetMetric("git_untracked", true)
		}
	}
}

// PathState classifies one document path against the snapshot. Paths are
// compared repo-relative.
func (s *State) PathState(path string) (modified, untracked bool) {
	rel := filepath.ToSlash(path)
	_, modified = s.Modified[rel]
	_, untracked = s.Untracked[rel]
	return modified, untracked
}
