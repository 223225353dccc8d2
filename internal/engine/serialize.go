package engine

import (
	"fmt"
	"image"

	"github.com/example/magicdraw/internal/codec"
	"github.com/example/magicdraw/internal/layer"
	"github.com/example/magicdraw/internal/shape"
)

// LayerBlob pairs a layer with an encoded raster of its contents.
type LayerBlob struct {
	LayerID string
	Blob    []byte
}

// ExportState flushes pending work and returns every layer surface encoded
// as PNG, bottom layer first.
func (e *Engine) ExportState() ([]LayerBlob, error) {
	e.Flush()
	e.WaitDecodes()
	e.Flush()
	out := make([]LayerBlob, 0, len(e.doc.Layers))
	for _, l := range e.doc.Layers {
		png, err := codec.EncodePNG(e.r.Surface(l.ID))
		if err != nil {
			return nil, fmt.Errorf("export layer %s: %w", l.ID, err)
		}
		out = append(out, LayerBlob{LayerID: l.ID, Blob: png})
	}
	return out, nil
}

// ImportState replaces the content of each named layer with its blob. Blobs
// for unknown layers are skipped. The whole import is one history entry and
// nothing changes when any blob fails to decode.
func (e *Engine) ImportState(blobs []LayerBlob) error {
	type decoded struct {
		id  string
		raw []byte
	}
	var ready []decoded
	for _, b := range blobs {
		if e.doc.Layer(b.LayerID) == nil {
			e.logger.Debug("import skips unknown layer", "layer", b.LayerID)
			continue
		}
		raw, _, err := e.decode(b.Blob)
		if err != nil {
			return fmt.Errorf("import layer %s: %w", b.LayerID, err)
		}
		ready = append(ready, decoded{id: b.LayerID, raw: raw})
	}
	if len(ready) == 0 {
		return nil
	}
	e.cancelGesture()
	e.record(func() bool {
		for _, d := range ready {
			e.doc.ReplaceContent(d.id, d.raw, e.fullCanvas(d.raw))
		}
		return true
	})
	return nil
}

// SetLayerImage replaces a layer's content with a decoded raster stretched
// over the whole canvas.
func (e *Engine) SetLayerImage(id string, blob []byte) error {
	if e.doc.Layer(id) == nil {
		return fmt.Errorf("set image on %q: %w", id, ErrLayerNotFound)
	}
	raw, _, err := e.decode(blob)
	if err != nil {
		return fmt.Errorf("set image on %q: %w", id, err)
	}
	e.cancelGesture()
	e.record(func() bool { return e.doc.ReplaceContent(id, raw, e.fullCanvas(raw)) }, id)
	return nil
}

// AddImage inserts blob as a new image shape centred on the active layer.
// Images larger than the fit fraction of the canvas on either axis are
// scaled down with their aspect ratio kept.
func (e *Engine) AddImage(blob []byte) (*shape.Image, error) {
	active := e.doc.Active()
	if active.Locked {
		return nil, fmt.Errorf("add image to %q: %w", active.ID, ErrLayerLocked)
	}
	raw, img, err := e.decode(blob)
	if err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}
	pw, ph := e.PhysicalSize()
	w, h := fitSize(img.Bounds().Dx(), img.Bounds().Dy(), float64(pw)*e.imageFit, float64(ph)*e.imageFit)
	im := &shape.Image{
		Base: shape.Base{
			ID: shape.NewID(),
			X:  (float64(pw) - w) / 2,
			Y:  (float64(ph) - h) / 2,
		},
		Width:  w,
		Height: h,
		Data:   raw,
	}
	e.cancelGesture()
	if !e.record(func() bool { return e.doc.AppendShape(active.ID, im) }, active.ID) {
		return nil, fmt.Errorf("add image to %q: %w", active.ID, ErrLayerLocked)
	}
	return im, nil
}

// fitSize scales w×h down to fit inside maxW×maxH.
func fitSize(w, h int, maxW, maxH float64) (float64, float64) {
	fw, fh := float64(w), float64(h)
	if fw <= 0 || fh <= 0 {
		return 0, 0
	}
	k := min(maxW/fw, maxH/fh, 1)
	return fw * k, fh * k
}

// decode unwraps and decodes blob, priming the render cache with the
// result so the layer paints on the next flush without waiting.
func (e *Engine) decode(blob []byte) ([]byte, image.Image, error) {
	raw, err := codec.Unwrap(blob)
	if err != nil {
		return nil, nil, err
	}
	img, _, err := codec.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	e.r.PrimeImage(raw, img)
	return raw, img, nil
}

func (e *Engine) fullCanvas(raw []byte) shape.Shape {
	pw, ph := e.PhysicalSize()
	return &shape.Image{
		Base:   shape.Base{ID: shape.NewID()},
		Width:  float64(pw),
		Height: float64(ph),
		Data:   raw,
	}
}

// Snapshot copies every layer surface so a following Resize can restore
// them. Hosts call it right before the canvas changes size.
func (e *Engine) Snapshot() {
	e.snapshot = e.r.Snapshot()
}

// Resize changes the logical canvas size. Surfaces are reallocated and the
// pixels captured by the last Snapshot are painted back until the next
// flush re-renders the layers.
func (e *Engine) Resize(w, h int) {
	if e.snapshot == nil {
		e.Snapshot()
	}
	e.cancelGesture()
	e.width, e.height = max(w, 1), max(h, 1)
	pw, ph := e.PhysicalSize()
	e.r.Resize(pw, ph, e.snapshot)
	e.snapshot = nil
}

// File captures the document for saving. Each layer's current raster is
// stored as its content next to its shapes.
func (e *Engine) File(title string) (*codec.File, error) {
	blobs, err := e.ExportState()
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = e.title
	}
	f := &codec.File{
		Version:       codec.FileVersion,
		Title:         title,
		Width:         e.width,
		Height:        e.height,
		Scale:         e.scale,
		ActiveLayerID: e.doc.Active().ID,
	}
	for i, l := range e.doc.CloneLayers() {
		l.Content = blobs[i].Blob
		f.Layers = append(f.Layers, codec.NewFileLayer(l))
	}
	return f, nil
}

// Load replaces the document with f. History is cleared.
func (e *Engine) Load(f *codec.File) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	layers := make([]*layer.Layer, 0, len(f.Layers))
	for _, fl := range f.Layers {
		l, err := fl.Restore()
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		l = l.Clone()
		if len(l.Shapes) > 0 {
			l.Content = nil
		}
		layers = append(layers, l)
	}
	e.cancelGesture()
	e.doc.SelectedID = ""
	e.doc.Restore(layers)
	if f.ActiveLayerID != "" {
		e.doc.SetActive(f.ActiveLayerID)
	}
	e.title = f.Title
	if f.Scale > 0 {
		e.scale = f.Scale
	}
	e.width, e.height = f.Width, f.Height
	pw, ph := e.PhysicalSize()
	e.r.ResetImages()
	e.r.Resize(pw, ph, nil)
	e.snapshot = nil
	e.rehydrate()
	e.hist.Reset()
	e.r.MarkAllDirty()
	e.commit()
	return nil
}
