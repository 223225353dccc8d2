package engine

import (
	"fmt"

	"github.com/example/magicdraw/internal/layer"
)

// AddLayer puts a new empty layer on top and makes it active. An empty name
// becomes "Layer N".
func (e *Engine) AddLayer(name string) *layer.Layer {
	e.cancelGesture()
	before := e.doc.CloneLayers()
	added := e.doc.Add(name)
	e.hist.Push(before)
	e.r.MarkDirty(added.ID)
	e.commit()
	return added
}

// DeleteLayer removes a layer. The last remaining layer is never removed.
func (e *Engine) DeleteLayer(id string) bool {
	if e.doc.Layer(id) == nil {
		return false
	}
	return e.record(func() bool { return e.doc.Delete(id) })
}

// ReorderLayer moves the layer at index from to index to.
func (e *Engine) ReorderLayer(from, to int) bool {
	return e.record(func() bool { return e.doc.Reorder(from, to) })
}

// MoveLayer moves layer id by delta positions, clamped to the stack.
func (e *Engine) MoveLayer(id string, delta int) bool {
	i := e.doc.Index(id)
	if i < 0 {
		return false
	}
	to := min(max(i+delta, 0), len(e.doc.Layers)-1)
	return e.ReorderLayer(i, to)
}

// RenameLayer changes a layer's display name.
func (e *Engine) RenameLayer(id, name string) bool {
	return e.record(func() bool { return e.doc.Rename(id, name) }, id)
}

// SetLayerVisible shows or hides a layer.
func (e *Engine) SetLayerVisible(id string, visible bool) bool {
	return e.record(func() bool { return e.doc.SetVisible(id, visible) }, id)
}

// SetLayerOpacity sets a layer's opacity, clamped to [0,1].
func (e *Engine) SetLayerOpacity(id string, v float64) bool {
	return e.record(func() bool { return e.doc.SetOpacity(id, v) }, id)
}

// SetLayerLocked locks or unlocks a layer.
func (e *Engine) SetLayerLocked(id string, locked bool) bool {
	return e.record(func() bool { return e.doc.SetLocked(id, locked) }, id)
}

// SetLayerBlend sets a layer's blend mode. Unknown names become normal.
func (e *Engine) SetLayerBlend(id, mode string) bool {
	return e.record(func() bool { return e.doc.SetBlend(id, layer.ParseBlend(mode)) }, id)
}

// SetLayerFilter sets a layer's CSS filter.
func (e *Engine) SetLayerFilter(id, filter string) bool {
	return e.record(func() bool { return e.doc.SetFilter(id, filter) }, id)
}

// SetActiveLayer chooses where new shapes go. It is not recorded in
// history.
func (e *Engine) SetActiveLayer(id string) error {
	if !e.doc.SetActive(id) {
		return fmt.Errorf("activate %q: %w", id, ErrLayerNotFound)
	}
	return nil
}

// StepActiveLayer activates the layer delta positions above (positive) or
// below the current one.
func (e *Engine) StepActiveLayer(delta int) *layer.Layer {
	i := e.doc.Index(e.doc.Active().ID)
	i = min(max(i+delta, 0), len(e.doc.Layers)-1)
	e.doc.ActiveID = e.doc.Layers[i].ID
	return e.doc.Layers[i]
}
