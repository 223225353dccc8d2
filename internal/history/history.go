// Package history keeps bounded undo and redo stacks of layer-stack
// snapshots.
package history

import "github.com/example/magicdraw/internal/layer"

// DefaultLimit is the undo depth used when none is configured.
const DefaultLimit = 20

// Snapshot is a deep copy of the layer stack. It never aliases live state.
type Snapshot []*layer.Layer

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, l := range s {
		out[i] = l.Clone()
	}
	return out
}

// Manager records one snapshot per discrete user action.
type Manager struct {
	limit int
	undo  []Snapshot
	redo  []Snapshot
}

// New returns a Manager keeping at most limit undo entries. A non-positive
// limit selects DefaultLimit.
func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit}
}

// Limit reports the undo depth.
func (m *Manager) Limit() int { return m.limit }

// Push records the state as it was before a mutation and drops the redo
// stack. The oldest entry is evicted once the limit is exceeded.
func (m *Manager) Push(before Snapshot) {
	m.undo = append(m.undo, before.clone())
	if over := len(m.undo) - m.limit; over > 0 {
		m.undo = append(m.undo[:0:0], m.undo[over:]...)
	}
	m.redo = nil
}

// Undo swaps current for the most recent undo entry. ok is false when there
// is nothing to undo.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	if len(m.undo) == 0 {
		return nil, false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current.clone())
	return prev.clone(), true
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	if len(m.redo) == 0 {
		return nil, false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, current.clone())
	return next.clone(), true
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (undo, redo int) { return len(m.undo), len(m.redo) }

// Reset forgets every entry, used when a document is loaded.
func (m *Manager) Reset() {
	m.undo = nil
	m.redo = nil
}
