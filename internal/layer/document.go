package layer

import (
	"fmt"
	"time"

	"github.com/example/magicdraw/internal/shape"
)

const (
	DefaultLayerID   = "layer-1"
	DefaultLayerName = "Background"
)

// Document is the ordered layer stack plus the active layer and the
// transient shape selection.
type Document struct {
	Layers     []*Layer
	ActiveID   string
	SelectedID string

	now func() time.Time
}

// NewDocument returns a document holding the default background layer.
func NewDocument() *Document {
	l := New(DefaultLayerID, DefaultLayerName)
	return &Document{Layers: []*Layer{l}, ActiveID: l.ID, now: time.Now}
}

// Index returns the position of the layer with id, or -1.
func (d *Document) Index(id string) int {
	for i, l := range d.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Layer returns the layer with id or nil.
func (d *Document) Layer(id string) *Layer {
	if i := d.Index(id); i >= 0 {
		return d.Layers[i]
	}
	return nil
}

// Active returns the active layer. It falls back to the topmost layer when
// the active id is stale.
func (d *Document) Active() *Layer {
	if l := d.Layer(d.ActiveID); l != nil {
		return l
	}
	top := d.Layers[len(d.Layers)-1]
	d.ActiveID = top.ID
	return top
}

// SetActive makes id the active layer.
func (d *Document) SetActive(id string) bool {
	if d.Layer(id) == nil {
		return false
	}
	d.ActiveID = id
	return true
}

func (d *Document) newLayerID() string {
	clock := d.now
	if clock == nil {
		clock = time.Now
	}
	stamp := clock().UnixMilli()
	for {
		id := fmt.Sprintf("layer-%d", stamp)
		if d.Layer(id) == nil {
			return id
		}
		stamp++
	}
}

// Add appends a new layer on top and makes it active. An empty name becomes
// "Layer N".
func (d *Document) Add(name string) *Layer {
	if name == "" {
		name = fmt.Sprintf("Layer %d", len(d.Layers)+1)
	}
	l := New(d.newLayerID(), name)
	d.Layers = append(d.Layers, l)
	d.ActiveID = l.ID
	return l
}

// Delete removes the layer with id. The sole remaining layer is never
// removed. Deleting the active layer activates the new top layer.
func (d *Document) Delete(id string) bool {
	if len(d.Layers) <= 1 {
		return false
	}
	i := d.Index(id)
	if i < 0 {
		return false
	}
	removed := d.Layers[i]
	d.Layers = append(d.Layers[:i:i], d.Layers[i+1:]...)
	if d.ActiveID == id {
		d.ActiveID = d.Layers[len(d.Layers)-1].ID
	}
	if d.SelectedID != "" {
		if s, _ := removed.Find(d.SelectedID); s != nil {
			d.SelectedID = ""
		}
	}
	return true
}

// Reorder moves the layer at index from so that it ends up at index to.
func (d *Document) Reorder(from, to int) bool {
	n := len(d.Layers)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	moved := d.Layers[from]
	rest := append(append([]*Layer{}, d.Layers[:from]...), d.Layers[from+1:]...)
	out := make([]*Layer, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	d.Layers = out
	return true
}

// Rename sets the display name of a layer.
func (d *Document) Rename(id, name string) bool {
	l := d.Layer(id)
	if l == nil || l.Name == name {
		return false
	}
	l.Name = name
	return true
}

// SetVisible toggles whether a layer contributes to the composite.
func (d *Document) SetVisible(id string, visible bool) bool {
	l := d.Layer(id)
	if l == nil || l.Visible == visible {
		return false
	}
	l.Visible = visible
	return true
}

// SetOpacity stores v clamped to [0,1].
func (d *Document) SetOpacity(id string, v float64) bool {
	l := d.Layer(id)
	if l == nil {
		return false
	}
	v = clampOpacity(v)
	if l.Opacity == v {
		return false
	}
	l.Opacity = v
	return true
}

// SetLocked toggles the lock that freezes a layer's shapes.
func (d *Document) SetLocked(id string, locked bool) bool {
	l := d.Layer(id)
	if l == nil || l.Locked == locked {
		return false
	}
	l.Locked = locked
	return true
}

// SetBlend changes the blend mode.
func (d *Document) SetBlend(id string, mode BlendMode) bool {
	l := d.Layer(id)
	if l == nil || l.Blend == mode {
		return false
	}
	l.Blend = mode
	return true
}

// SetFilter changes the CSS filter applied before compositing.
func (d *Document) SetFilter(id, filter string) bool {
	l := d.Layer(id)
	if l == nil || l.Filter == filter {
		return false
	}
	l.Filter = filter
	return true
}

// FindShape locates a shape anywhere in the document.
func (d *Document) FindShape(id string) (*Layer, shape.Shape) {
	for _, l := range d.Layers {
		if s, _ := l.Find(id); s != nil {
			return l, s
		}
	}
	return nil, nil
}

// AppendShape adds s on top of layer id. Locked or missing layers refuse
// the shape. A colliding shape id is replaced with a fresh one.
func (d *Document) AppendShape(id string, s shape.Shape) bool {
	l := d.Layer(id)
	if l == nil || l.Locked {
		return false
	}
	base := s.Common()
	for base.ID == "" || d.hasShape(base.ID) {
		base.ID = shape.NewID()
	}
	l.Shapes = append(l.Shapes, s)
	return true
}

func (d *Document) hasShape(id string) bool {
	_, s := d.FindShape(id)
	return s != nil
}

// DeleteShape removes a shape from its owning layer.
func (d *Document) DeleteShape(id string) (*Layer, bool) {
	l, s := d.FindShape(id)
	if s == nil || l.Locked {
		return nil, false
	}
	_, i := l.Find(id)
	l.Shapes = append(l.Shapes[:i:i], l.Shapes[i+1:]...)
	if len(l.Shapes) == 0 {
		l.Content = nil
	}
	if d.SelectedID == id {
		d.SelectedID = ""
	}
	return l, true
}

// ApplyMutation moves a shape in place. It returns the owning layer so the
// caller can render it.
func (d *Document) ApplyMutation(id string, origin shape.Point) (*Layer, bool) {
	l, s := d.FindShape(id)
	if s == nil || l.Locked {
		return nil, false
	}
	s.MoveTo(origin.X, origin.Y)
	return l, true
}

// ReplaceContent clears a layer and installs a single shape standing for
// the layer raster.
func (d *Document) ReplaceContent(id string, content []byte, s shape.Shape) bool {
	l := d.Layer(id)
	if l == nil {
		return false
	}
	if d.SelectedID != "" {
		if sel, _ := l.Find(d.SelectedID); sel != nil {
			d.SelectedID = ""
		}
	}
	l.Shapes = nil
	l.Content = content
	if s != nil {
		if s.Common().ID == "" || d.hasShape(s.Common().ID) {
			s.Common().ID = shape.NewID()
		}
		l.Shapes = shape.List{s}
	}
	return true
}

// CloneLayers deep-copies the layer stack.
func (d *Document) CloneLayers() []*Layer {
	out := make([]*Layer, len(d.Layers))
	for i, l := range d.Layers {
		out[i] = l.Clone()
	}
	return out
}

// Restore installs layers as the live stack. The active layer and the
// selection are repaired if they no longer exist.
func (d *Document) Restore(layers []*Layer) {
	if len(layers) == 0 {
		return
	}
	d.Layers = layers
	if d.Layer(d.ActiveID) == nil {
		d.ActiveID = layers[len(layers)-1].ID
	}
	if d.SelectedID != "" && !d.hasShape(d.SelectedID) {
		d.SelectedID = ""
	}
}
