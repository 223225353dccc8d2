// Package engine is the drawing core: it owns the layer document, routes
// pointer gestures through the active tool, records history and keeps the
// renderer in step with every mutation.
package engine

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/example/magicdraw/internal/history"
	"github.com/example/magicdraw/internal/layer"
	"github.com/example/magicdraw/internal/render"
	"github.com/example/magicdraw/internal/shape"
)

var (
	// ErrLayerNotFound is returned when an operation names an unknown layer.
	ErrLayerNotFound = errors.New("layer not found")
	// ErrLayerLocked is returned when content is added to a locked layer.
	ErrLayerLocked = errors.New("layer is locked")
)

// DefaultImageFit is the largest fraction of the canvas an inserted image
// may cover on either axis.
const DefaultImageFit = 0.8

type options struct {
	scale        float64
	historyLimit int
	imageFit     float64
	stroke       Stroke
	halo         color.Color
	onCommit     func()
	onDecoded    func()
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithScale sets the device pixel ratio. Pointer coordinates are multiplied
// by it and surfaces are allocated at the scaled size.
func WithScale(s float64) Option { return func(o *options) { o.scale = s } }

// WithHistoryLimit caps the undo depth.
func WithHistoryLimit(n int) Option { return func(o *options) { o.historyLimit = n } }

// WithImageFit sets the fraction of the canvas AddImage fits images into.
func WithImageFit(f float64) Option { return func(o *options) { o.imageFit = f } }

// WithStroke sets the initial stroke style.
func WithStroke(s Stroke) Option { return func(o *options) { o.stroke = s } }

// WithHalo sets the selection outline colour.
func WithHalo(c color.Color) Option { return func(o *options) { o.halo = c } }

// WithOnCommit registers a hook run after every durable mutation.
func WithOnCommit(fn func()) Option { return func(o *options) { o.onCommit = fn } }

// WithOnDecoded registers a hook run from a worker goroutine when a
// background image decode finishes. The host should schedule a Flush.
func WithOnDecoded(fn func()) Option { return func(o *options) { o.onDecoded = fn } }

// WithLogger sets the logger for the engine and its renderer.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Engine is a single drawing. It is not safe for concurrent use.
type Engine struct {
	doc  *layer.Document
	hist *history.Manager
	r    *render.Renderer

	width, height int
	scale         float64
	imageFit      float64
	stroke        Stroke
	title         string

	tool       Tool
	state      State
	stub       shape.Shape
	anchor     shape.Point
	dragID     string
	dragOffset shape.Point
	dragBefore history.Snapshot
	dragMoved  bool
	snapshot   map[string]*image.RGBA

	onCommit func()
	logger   *slog.Logger
}

// New returns an engine with a single background layer on a w×h logical
// canvas.
func New(w, h int, opts ...Option) *Engine {
	o := options{
		scale:    1,
		imageFit: DefaultImageFit,
		stroke:   DefaultStroke,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scale <= 0 {
		o.scale = 1
	}
	if o.imageFit <= 0 || o.imageFit > 1 {
		o.imageFit = DefaultImageFit
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	e := &Engine{
		doc:      layer.NewDocument(),
		hist:     history.New(o.historyLimit),
		width:    max(w, 1),
		height:   max(h, 1),
		scale:    o.scale,
		imageFit: o.imageFit,
		stroke:   o.stroke,
		tool:     ToolPencil,
		onCommit: o.onCommit,
		logger:   o.logger,
	}
	pw, ph := e.PhysicalSize()
	e.r = render.New(pw, ph,
		render.WithLogger(o.logger),
		render.WithHalo(o.halo),
		render.WithOnDecoded(o.onDecoded),
	)
	return e
}

// Size returns the logical canvas size.
func (e *Engine) Size() (int, int) { return e.width, e.height }

// Scale returns the device pixel ratio.
func (e *Engine) Scale() float64 { return e.scale }

// PhysicalSize is the surface size in pixels.
func (e *Engine) PhysicalSize() (int, int) {
	return int(math.Round(float64(e.width) * e.scale)), int(math.Round(float64(e.height) * e.scale))
}

// Title names the drawing in saved documents.
func (e *Engine) Title() string { return e.title }

// SetTitle renames the drawing.
func (e *Engine) SetTitle(t string) { e.title = t }

// Layers exposes the live layer stack, bottom first. Callers must not
// mutate it directly.
func (e *Engine) Layers() []*layer.Layer { return e.doc.Layers }

// Layer returns the layer with id or nil.
func (e *Engine) Layer(id string) *layer.Layer { return e.doc.Layer(id) }

// ActiveLayer returns the layer new shapes go to.
func (e *Engine) ActiveLayer() *layer.Layer { return e.doc.Active() }

// Selected returns the id of the selected shape, or empty.
func (e *Engine) Selected() string { return e.doc.SelectedID }

// Tool returns the active tool.
func (e *Engine) Tool() Tool { return e.tool }

// State returns the controller state.
func (e *Engine) State() State { return e.state }

// Stroke returns the style for new shapes.
func (e *Engine) Stroke() Stroke { return e.stroke }

// SetStroke changes the style for new shapes.
func (e *Engine) SetStroke(s Stroke) {
	if s.Width <= 0 {
		s.Width = DefaultStroke.Width
	}
	if s.Color == "" {
		s.Color = DefaultStroke.Color
	}
	e.stroke = s
}

// CanUndo reports whether Undo would change anything.
func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// HistoryDepth returns the undo and redo stack sizes.
func (e *Engine) HistoryDepth() (int, int) { return e.hist.Depth() }

// Flush renders dirty layers and returns the composite.
func (e *Engine) Flush() *image.RGBA {
	return e.r.Flush(e.scene())
}

// Dirty reports whether Flush has work to do.
func (e *Engine) Dirty() bool { return e.r.Dirty() }

// Composite returns the image built by the last Flush.
func (e *Engine) Composite() *image.RGBA { return e.r.Composite() }

// Preview returns the surface showing the shape being drawn.
func (e *Engine) Preview() *image.RGBA { return e.r.Preview() }

// Surface returns the rendered pixels of one layer.
func (e *Engine) Surface(id string) *image.RGBA { return e.r.Surface(id) }

// WaitDecodes blocks until background image decodes finish.
func (e *Engine) WaitDecodes() { e.r.WaitDecodes(e.doc.Layers) }

// Close releases render resources.
func (e *Engine) Close() error { return e.r.Close() }

func (e *Engine) scene() render.Scene {
	sc := render.Scene{Layers: e.doc.Layers}
	if e.tool == ToolMove {
		sc.Halo = e.doc.SelectedID
	}
	return sc
}

// halo is the shape to outline when rendering a layer explicitly.
func (e *Engine) halo() string { return e.scene().Halo }

func (e *Engine) commit() {
	if e.onCommit != nil {
		e.onCommit()
	}
}

// record ends any gesture, runs fn and, when it reports a change, pushes the
// state from before the call, marks the named layers dirty (all layers when
// none are named) and notifies the host.
func (e *Engine) record(fn func() bool, dirty ...string) bool {
	e.cancelGesture()
	before := e.doc.CloneLayers()
	if !fn() {
		return false
	}
	e.hist.Push(before)
	if len(dirty) == 0 {
		e.r.MarkAllDirty()
	}
	for _, id := range dirty {
		e.r.MarkDirty(id)
	}
	e.commit()
	return true
}

// Undo restores the state before the last recorded action.
func (e *Engine) Undo() bool {
	e.cancelGesture()
	prev, ok := e.hist.Undo(e.doc.CloneLayers())
	if !ok {
		return false
	}
	e.restore(prev)
	return true
}

// Redo reapplies the last undone action.
func (e *Engine) Redo() bool {
	e.cancelGesture()
	next, ok := e.hist.Redo(e.doc.CloneLayers())
	if !ok {
		return false
	}
	e.restore(next)
	return true
}

func (e *Engine) restore(layers history.Snapshot) {
	e.doc.Restore(layers)
	e.rehydrate()
	e.r.MarkAllDirty()
	e.commit()
}

// rehydrate turns raster content into a full-canvas image shape on layers
// that carry content but no shapes.
func (e *Engine) rehydrate() {
	pw, ph := e.PhysicalSize()
	for _, l := range e.doc.Layers {
		if len(l.Content) == 0 || len(l.Shapes) > 0 {
			continue
		}
		l.Shapes = shape.List{&shape.Image{
			Base:   shape.Base{ID: shape.NewID()},
			Width:  float64(pw),
			Height: float64(ph),
			Data:   l.Content,
		}}
	}
}

// cancelGesture ends any pointer gesture before a programmatic change.
// A drag that already moved its shape is committed.
func (e *Engine) cancelGesture() {
	switch e.state {
	case StateDragging:
		e.endDrag()
	case StateDrawing:
		e.stub = nil
		e.r.DrawPreview(nil)
		e.state = StateIdle
	}
}
