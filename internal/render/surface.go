package render

import (
	"image"
	"image/draw"

	"github.com/gogpu/gg"
)

// Surface is one layer's physical-pixel raster backed by a gg context.
// Pixels are alpha-premultiplied RGBA.
type Surface struct {
	dc *gg.Context
}

// NewSurface allocates a transparent w×h surface.
func NewSurface(w, h int) *Surface {
	return &Surface{dc: gg.NewContext(max(w, 1), max(h, 1))}
}

// Context exposes the gg drawing context.
func (s *Surface) Context() *gg.Context { return s.dc }

// Bounds is the pixel rectangle of the surface.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.dc.Width(), s.dc.Height())
}

// Clear makes every pixel transparent.
func (s *Surface) Clear() { s.dc.Clear() }

// View returns an *image.RGBA sharing the surface pixels. Writes through
// the view change the surface.
func (s *Surface) View() *image.RGBA {
	_ = s.dc.FlushGPU()
	pm := s.dc.ResizeTarget()
	return &image.RGBA{
		Pix:    pm.Data(),
		Stride: pm.Width() * 4,
		Rect:   image.Rect(0, 0, pm.Width(), pm.Height()),
	}
}

// Snapshot copies the surface pixels.
func (s *Surface) Snapshot() *image.RGBA {
	v := s.View()
	out := image.NewRGBA(v.Rect)
	copy(out.Pix, v.Pix)
	return out
}

// Blit draws img over the surface at its top-left corner, clipped to the
// surface bounds.
func (s *Surface) Blit(img image.Image) {
	if img == nil {
		return
	}
	draw.Draw(s.View(), img.Bounds().Sub(img.Bounds().Min), img, img.Bounds().Min, draw.Over)
}

// Close releases the context.
func (s *Surface) Close() error { return s.dc.Close() }
