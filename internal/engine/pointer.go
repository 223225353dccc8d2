package engine

import "github.com/example/magicdraw/internal/shape"

func (e *Engine) physical(x, y float64) shape.Point {
	return shape.Point{X: x * e.scale, Y: y * e.scale}
}

// SetTool switches the active tool. Leaving the move tool drops the
// selection.
func (e *Engine) SetTool(t Tool) {
	if t == e.tool {
		return
	}
	e.cancelGesture()
	e.tool = t
	if t != ToolMove {
		e.doc.SelectedID = ""
	}
	e.r.MarkAllDirty()
}

// PointerDown starts a gesture at logical coordinates x, y.
func (e *Engine) PointerDown(x, y float64) {
	if e.state != StateIdle {
		return
	}
	active := e.doc.Active()
	if active.Locked {
		return
	}
	p := e.physical(x, y)
	if e.tool == ToolMove {
		hit := active.HitTest(p)
		e.r.MarkDirty(active.ID)
		if hit == nil {
			e.doc.SelectedID = ""
			return
		}
		e.doc.SelectedID = hit.Common().ID
		e.dragID = hit.Common().ID
		e.dragOffset = p.Sub(hit.Origin())
		e.dragBefore = e.doc.CloneLayers()
		e.dragMoved = false
		e.state = StateDragging
		return
	}
	e.stub = newStub(e.tool, p, e.stroke)
	if e.stub == nil {
		return
	}
	e.anchor = p
	e.state = StateDrawing
	e.r.DrawPreview(e.stub)
}

// PointerMove continues the gesture in progress.
func (e *Engine) PointerMove(x, y float64) {
	p := e.physical(x, y)
	switch e.state {
	case StateDragging:
		l, ok := e.doc.ApplyMutation(e.dragID, p.Sub(e.dragOffset))
		if !ok {
			return
		}
		e.dragMoved = true
		e.r.Render(l, e.halo())
	case StateDrawing:
		extend(e.stub, e.anchor, p)
		e.r.DrawPreview(e.stub)
	}
}

// PointerUp finishes the gesture in progress.
func (e *Engine) PointerUp() {
	switch e.state {
	case StateDragging:
		e.endDrag()
	case StateDrawing:
		e.finishShape()
	}
}

// PointerLeave behaves like PointerUp: leaving the canvas commits the
// gesture as it stands.
func (e *Engine) PointerLeave() { e.PointerUp() }

func (e *Engine) endDrag() {
	if e.dragMoved {
		e.hist.Push(e.dragBefore)
		if l, _ := e.doc.FindShape(e.dragID); l != nil {
			e.r.MarkDirty(l.ID)
		}
		e.commit()
	}
	e.dragID = ""
	e.dragBefore = nil
	e.dragMoved = false
	e.state = StateIdle
}

func (e *Engine) finishShape() {
	s := e.stub
	e.stub = nil
	e.state = StateIdle
	e.r.DrawPreview(nil)
	active := e.doc.Active()
	before := e.doc.CloneLayers()
	if !e.doc.AppendShape(active.ID, s) {
		return
	}
	e.r.Render(active, e.halo())
	e.hist.Push(before)
	e.commit()
}

// DeleteShape removes a shape from whichever layer owns it.
func (e *Engine) DeleteShape(id string) bool {
	l, _ := e.doc.FindShape(id)
	if l == nil {
		return false
	}
	return e.record(func() bool {
		_, ok := e.doc.DeleteShape(id)
		return ok
	}, l.ID)
}

// DeleteSelected removes the selected shape.
func (e *Engine) DeleteSelected() bool {
	if e.doc.SelectedID == "" {
		return false
	}
	return e.DeleteShape(e.doc.SelectedID)
}
