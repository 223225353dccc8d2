package render

import (
	"image/color"

	"github.com/gogpu/gg"

	"github.com/example/magicdraw/internal/shape"
)

const (
	haloWidth  = 2.0
	haloDash   = 5.0
	haloMargin = 5.0
)

// strokeColor resolves a shape colour, logging and falling back to black on
// garbage.
func (r *Renderer) strokeColor(spec string) color.Color {
	c, err := ParseColor(spec)
	if err != nil {
		r.logger.Debug("bad stroke colour", "color", spec, "error", err)
		return color.Black
	}
	return c
}

// drawShape paints s onto dc. Erasers are painted as ordinary strokes; the
// caller turns them into a mask.
func (r *Renderer) drawShape(dc *gg.Context, s shape.Shape) {
	b := s.Common()
	if img, ok := s.(*shape.Image); ok {
		r.drawImage(dc, img)
		return
	}
	if !tracePath(dc, s) {
		return
	}
	width := b.StrokeWidth
	if width <= 0 {
		width = 1
	}
	dc.SetColor(r.strokeColor(b.StrokeColor))
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	if err := dc.Stroke(); err != nil {
		r.logger.Warn("stroke failed", "shape", b.ID, "kind", s.Kind(), "error", err)
	}
}

// tracePath adds the outline of s to the current path. It reports false
// for shapes with nothing to draw.
func tracePath(dc *gg.Context, s shape.Shape) bool {
	switch v := s.(type) {
	case *shape.Rectangle:
		if v.Width == 0 && v.Height == 0 {
			return false
		}
		bb := v.BoundingBox()
		dc.DrawRectangle(bb.X, bb.Y, bb.W, bb.H)
	case *shape.Circle:
		if v.Radius <= 0 {
			return false
		}
		dc.DrawCircle(v.X, v.Y, v.Radius)
	case *shape.Triangle:
		a, b, c := v.Vertices()
		if a == b && b == c {
			return false
		}
		dc.MoveTo(a.X, a.Y)
		dc.LineTo(b.X, b.Y)
		dc.LineTo(c.X, c.Y)
		dc.ClosePath()
	case *shape.Path:
		if len(v.Points) < 2 {
			return false
		}
		dc.MoveTo(v.X+v.Points[0].X, v.Y+v.Points[0].Y)
		for _, p := range v.Points[1:] {
			dc.LineTo(v.X+p.X, v.Y+p.Y)
		}
	default:
		return false
	}
	return true
}

func (r *Renderer) drawImage(dc *gg.Context, im *shape.Image) {
	buf := r.images.lookup(im.Data)
	if buf == nil {
		return
	}
	bb := im.BoundingBox()
	if bb.W <= 0 || bb.H <= 0 {
		return
	}
	dc.DrawImageEx(buf, gg.DrawImageOptions{
		X:             bb.X,
		Y:             bb.Y,
		DstWidth:      bb.W,
		DstHeight:     bb.H,
		Interpolation: gg.InterpBilinear,
	})
}

// drawHalo outlines the bounding box of the selected shape with a dashed
// line.
func (r *Renderer) drawHalo(dc *gg.Context, s shape.Shape) {
	bb := s.BoundingBox().Expand(haloMargin)
	dc.ClearPath()
	dc.SetColor(r.halo)
	dc.SetLineWidth(haloWidth)
	dc.SetLineCap(gg.LineCapButt)
	dc.SetLineJoin(gg.LineJoinMiter)
	dc.SetDash(haloDash, haloDash)
	defer dc.ClearDash()
	dc.DrawRectangle(bb.X, bb.Y, bb.W, bb.H)
	if err := dc.Stroke(); err != nil {
		r.logger.Warn("halo stroke failed", "shape", s.Common().ID, "error", err)
	}
}
