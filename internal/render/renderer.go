// Package render rasterises layers into per-layer surfaces and composites
// them with CSS blend modes and filters.
package render

import (
	"image"
	"image/color"
	"log/slog"

	"github.com/example/magicdraw/internal/layer"
	"github.com/example/magicdraw/internal/shape"
)

// Scene is what a flush needs to know about the document.
type Scene struct {
	Layers []*layer.Layer
	// Halo is the id of the shape to outline, or empty.
	Halo string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for render warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHalo sets the selection outline colour.
func WithHalo(c color.Color) Option {
	return func(r *Renderer) {
		if c != nil {
			r.halo = c
		}
	}
}

// WithOnDecoded registers a hook called from a worker goroutine whenever a
// background image decode finishes. Hosts typically schedule a Flush.
func WithOnDecoded(fn func()) Option {
	return func(r *Renderer) { r.onDecoded = fn }
}

// Renderer owns one surface per layer plus the composite.
type Renderer struct {
	width, height int

	surfaces  map[string]*Surface
	dirty     map[string]bool
	allDirty  bool
	mask      *Surface
	preview   *Surface
	composite *image.RGBA
	filters   map[string]*Filter

	halo      color.Color
	logger    *slog.Logger
	onDecoded func()
	images    *imageCache
}

// New returns a renderer for a w×h physical-pixel canvas.
func New(w, h int, opts ...Option) *Renderer {
	r := &Renderer{
		width:    max(w, 1),
		height:   max(h, 1),
		surfaces: map[string]*Surface{},
		dirty:    map[string]bool{},
		filters:  map[string]*Filter{},
		allDirty: true,
		halo:     DefaultHalo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.mask = NewSurface(r.width, r.height)
	r.preview = NewSurface(r.width, r.height)
	r.composite = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	r.images = newImageCache(r.logger, r.onDecoded)
	return r
}

// Size returns the physical canvas size.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// MarkDirty schedules layer id for re-rendering on the next Flush.
func (r *Renderer) MarkDirty(id string) { r.dirty[id] = true }

// MarkAllDirty schedules every layer.
func (r *Renderer) MarkAllDirty() { r.allDirty = true }

// Dirty reports whether a Flush would do any work.
func (r *Renderer) Dirty() bool {
	return r.allDirty || len(r.dirty) > 0 || len(r.images.results) > 0
}

// surface returns the surface for id, allocating it on first use.
func (r *Renderer) surface(id string) *Surface {
	s, ok := r.surfaces[id]
	if !ok {
		s = NewSurface(r.width, r.height)
		r.surfaces[id] = s
	}
	return s
}

// Surface returns the pixels of layer id, or nil when it was never rendered.
func (r *Renderer) Surface(id string) *image.RGBA {
	s, ok := r.surfaces[id]
	if !ok {
		return nil
	}
	return s.View()
}

// Render redraws a single layer immediately. haloID names the selected
// shape to outline when it lives on l.
func (r *Renderer) Render(l *layer.Layer, haloID string) {
	s := r.surface(l.ID)
	s.Clear()
	dc := s.Context()
	for _, sh := range l.Shapes {
		if sh.Kind() == shape.KindEraser {
			r.erase(s, sh)
			continue
		}
		dc.ClearPath()
		r.drawShape(dc, sh)
	}
	if haloID != "" {
		if sh, _ := l.Find(haloID); sh != nil {
			r.drawHalo(dc, sh)
		}
	}
	dc.ClearPath()
	delete(r.dirty, l.ID)
}

// erase paints sh into the scratch mask and removes that coverage from s.
func (r *Renderer) erase(s *Surface, sh shape.Shape) {
	r.mask.Clear()
	mdc := r.mask.Context()
	mdc.ClearPath()
	r.drawShape(mdc, sh)
	eraseWith(s.View().Pix, r.mask.View().Pix)
}

// Flush collects finished image decodes, re-renders dirty layers, forgets
// rasters no layer references and rebuilds the composite, which it returns.
func (r *Renderer) Flush(scene Scene) *image.RGBA {
	if r.images.drain() {
		r.markImageLayers(scene.Layers)
	}
	live := make(map[string]bool, len(scene.Layers))
	for _, l := range scene.Layers {
		live[l.ID] = true
		if r.allDirty || r.dirty[l.ID] || r.surfaces[l.ID] == nil {
			r.Render(l, scene.Halo)
		}
	}
	r.prune(live)
	r.images.retain(scene.Layers)
	r.allDirty = false
	clear(r.dirty)
	r.composite = r.compose(scene.Layers)
	return r.composite
}

// WaitDecodes blocks until every background decode has finished and marks
// the layers that were waiting on them dirty.
func (r *Renderer) WaitDecodes(layers []*layer.Layer) {
	if r.images.wait() {
		r.markImageLayers(layers)
	}
}

// PrimeImage records a raster already decoded from data.
func (r *Renderer) PrimeImage(data []byte, img image.Image) { r.images.prime(data, img) }

// ResetImages drops every cached raster.
func (r *Renderer) ResetImages() { r.images.reset() }

func (r *Renderer) markImageLayers(layers []*layer.Layer) {
	for _, l := range layers {
		if l.HasImages() {
			r.dirty[l.ID] = true
		}
	}
}

// prune closes surfaces whose layer is gone.
func (r *Renderer) prune(live map[string]bool) {
	for id, s := range r.surfaces {
		if live[id] {
			continue
		}
		if err := s.Close(); err != nil {
			r.logger.Debug("close surface", "layer", id, "error", err)
		}
		delete(r.surfaces, id)
	}
}

func (r *Renderer) filter(l *layer.Layer) *Filter {
	if f, ok := r.filters[l.ID]; ok && f.String() == l.Filter {
		return f
	}
	f, err := ParseFilter(l.Filter)
	if err != nil {
		r.logger.Warn("ignoring malformed filter", "layer", l.ID, "filter", l.Filter, "error", err)
		f = &Filter{src: l.Filter}
	}
	r.filters[l.ID] = f
	return f
}

// compose blends visible layers bottom to top.
func (r *Renderer) compose(layers []*layer.Layer) *image.RGBA {
	acc := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for _, l := range layers {
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		s, ok := r.surfaces[l.ID]
		if !ok {
			continue
		}
		src := r.filter(l).Apply(toStraight(s.View()))
		acc = composite(acc, src, l.Blend, l.Opacity)
	}
	return toPremultiplied(acc)
}

// DrawPreview repaints the preview surface with s alone. A nil shape
// clears it.
func (r *Renderer) DrawPreview(s shape.Shape) {
	r.preview.Clear()
	if s == nil {
		return
	}
	dc := r.preview.Context()
	dc.ClearPath()
	r.drawShape(dc, s)
	dc.ClearPath()
}

// Preview returns the in-progress shape surface.
func (r *Renderer) Preview() *image.RGBA { return r.preview.View() }

// Composite returns the image built by the last Flush.
func (r *Renderer) Composite() *image.RGBA { return r.composite }

// Snapshot copies every layer surface, keyed by layer id.
func (r *Renderer) Snapshot() map[string]*image.RGBA {
	out := make(map[string]*image.RGBA, len(r.surfaces))
	for id, s := range r.surfaces {
		out[id] = s.Snapshot()
	}
	return out
}

// Resize reallocates every surface at w×h, reapplies snapshot pixels and
// marks everything dirty.
func (r *Renderer) Resize(w, h int, snapshot map[string]*image.RGBA) {
	r.width, r.height = max(w, 1), max(h, 1)
	for id, s := range r.surfaces {
		_ = s.Close()
		delete(r.surfaces, id)
	}
	for id, img := range snapshot {
		s := r.surface(id)
		s.Blit(img)
	}
	_ = r.mask.Close()
	_ = r.preview.Close()
	r.mask = NewSurface(r.width, r.height)
	r.preview = NewSurface(r.width, r.height)
	r.composite = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	r.allDirty = true
}

// Close releases every surface.
func (r *Renderer) Close() error {
	r.images.wait()
	for id, s := range r.surfaces {
		_ = s.Close()
		delete(r.surfaces, id)
	}
	_ = r.preview.Close()
	return r.mask.Close()
}
