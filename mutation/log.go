// Package mutation records reversible in-memory edits to a built graph
// as an append-only log, in support of tooling that proposes edits before
// writing them back to source documents.
package mutation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracegraph/graph"
)

// ErrNotFound is returned by UndoTo for a mutation id absent from the
// log. Silently undoing the wrong range would corrupt caller
// expectations, so this is a hard error.
var ErrNotFound = errors.New("mutation not found")

// Entry records one applied mutation with full before/after node state.
type Entry struct {
	ID        string
	Timestamp time.Time
	Op        string
	NodeID    string
	Before    *graph.Node
	After     *graph.Node
	// AffectsHash marks changes that alter the node's content hash.
	AffectsHash bool
}

// Log applies mutations to a graph and records them. Callers sharing a
// Log across goroutines are serialized internally; the underlying graph
// itself must not be mutated concurrently by other means.
type Log struct {
	mu      sync.Mutex
	g       *graph.Graph
	entries []*Entry
}

// NewLog creates a mutation log bound to a graph.
func NewLog(g *graph.Graph) *Log {
	return &Log{g: g}
}

// Entries returns the log in chronological order.
func (l *Log) Entries() []*Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Entry(nil), l.entries...)
}

// Rename changes a node's identifier. The graph's identifier index is
// updated in the same step, so FindByID is never stale.
func (l *Log) Rename(oldID, newID string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	node, ok := l.g.FindByID(oldID)
	if !ok {
		return nil, fmt.Errorf("rename: node %q not found", oldID)
	}
	before := node.Clone()
	if err := l.g.RenameNode(oldID, newID); err != nil {
		return nil, err
	}
	return l.append("rename", node, before), nil
}

// SetLabel changes a node's display label.
func (l *Log) SetLabel(id, label string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	node, ok := l.g.FindByID(id)
	if !ok {
		return nil, fmt.Errorf("set label: node %q not found", id)
	}
	before := node.Clone()
	node.Label = label
	return l.append("set_label", node, before), nil
}

// SetAssertionText changes an assertion's text. This affects the owning
// requirement's content hash, so the entry is flagged accordingly.
func (l *Log) SetAssertionText(id, text string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	node, ok := l.g.FindByID(id)
	if !ok {
		return nil, fmt.Errorf("set assertion text: node %q not found", id)
	}
	if node.Kind != graph.KindAssertion {
		return nil, fmt.Errorf("set assertion text: node %q is %s, not an assertion", id, node.Kind)
	}
	before := node.Clone()
	node.Assertion.Text = text
	entry := l.append("set_assertion_text", node, before)
	entry.AffectsHash = true
	return entry, nil
}

func (l *Log) append(op string, node *graph.Node, before *graph.Node) *Entry {
	entry := &Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Op:        op,
		NodeID:    node.ID,
		Before:    before,
		After:     node.Clone(),
	}
	l.entries = append(l.entries, entry)
	return entry
}

// UndoLast pops the most recent entry and applies its before-state back
// onto the live node and index. Returns false when the log is empty.
func (l *Log) UndoLast() (*Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.undoLast()
}

// UndoTo undoes every entry from the most recent back through and
// including the named one, in reverse chronological order, and returns
// the undone entries. Returns ErrNotFound if the id is not in the log.
func (l *Log) UndoTo(mutationID string) ([]*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	found := false
	for _, e := range l.entries {
		if e.ID == mutationID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, mutationID)
	}

	var undone []*Entry
	for {
		entry, ok := l.undoLast()
		if !ok {
			break
		}
		undone = append(undone, entry)
		if entry.ID == mutationID {
			break
		}
	}
	return undone, nil
}

func (l *Log) undoLast() (*Entry, bool) {
	if len(l.entries) == 0 {
		return nil, false
	}
	entry := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	l.restore(entry)
	return entry, true
}

// restore applies an entry's before-state onto the live node. A rename is
// reversed first so the index and the node's identifier change together.
func (l *Log) restore(entry *Entry) {
	currentID := entry.After.ID
	if entry.Before.ID != currentID {
		// Reverse the rename; the before-id slot was freed by the
		// original rename, so this cannot collide.
		_ = l.g.RenameNode(currentID, entry.Before.ID)
	}
	node, ok := l.g.FindByID(entry.Before.ID)
	if !ok {
		return
	}
	restored := entry.Before.Clone()
	*node = *restored
}
