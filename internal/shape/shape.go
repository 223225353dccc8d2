// Package shape defines the drawable primitives stored in a layer together
// with their hit-testing and bounding-box geometry.
package shape

import (
	"github.com/google/uuid"
)

// Kind identifies the concrete type behind a Shape.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindTriangle  Kind = "triangle"
	KindPath      Kind = "path"
	KindEraser    Kind = "eraser"
	KindImage     Kind = "image"
)

// Point is a position in physical canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Shape is implemented by every primitive a layer can hold.
type Shape interface {
	Kind() Kind
	// Common exposes the fields shared by all kinds. The returned pointer
	// aliases the shape.
	Common() *Base
	Origin() Point
	// MoveTo relocates the shape origin without changing its identity.
	MoveTo(x, y float64)
	HitTest(p Point) bool
	BoundingBox() Rect
	Clone() Shape
}

// Base holds the fields every shape carries. Rotation is in radians and is
// persisted only; drawing and hit testing use the unrotated geometry.
type Base struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Rotation    float64 `json:"rotation,omitempty"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
}

func (b *Base) Common() *Base { return b }

func (b *Base) Origin() Point { return Point{X: b.X, Y: b.Y} }

func (b *Base) MoveTo(x, y float64) {
	b.X = x
	b.Y = y
}

// NewID returns a fresh shape identifier.
func NewID() string { return uuid.NewString() }

// Rectangle is an axis aligned outline.
type Rectangle struct {
	Base
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) HitTest(p Point) bool { return r.BoundingBox().Contains(p) }

func (r *Rectangle) BoundingBox() Rect {
	return Rect{X: r.X, Y: r.Y, W: r.Width, H: r.Height}.Canon()
}

func (r *Rectangle) Clone() Shape {
	c := *r
	return &c
}

// Circle is centred on its origin.
type Circle struct {
	Base
	Radius float64 `json:"radius"`
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) HitTest(p Point) bool {
	return distance(p, c.Origin()) <= c.Radius
}

func (c *Circle) BoundingBox() Rect {
	return Rect{X: c.X - c.Radius, Y: c.Y - c.Radius, W: c.Radius * 2, H: c.Radius * 2}
}

func (c *Circle) Clone() Shape {
	cc := *c
	return &cc
}

// Triangle has its apex at the origin; P2 and P3 are relative to it.
type Triangle struct {
	Base
	P2 Point `json:"p2"`
	P3 Point `json:"p3"`
}

func (t *Triangle) Kind() Kind { return KindTriangle }

// Vertices returns the absolute corner positions.
func (t *Triangle) Vertices() (a, b, c Point) {
	a = t.Origin()
	b = Point{X: t.X + t.P2.X, Y: t.Y + t.P2.Y}
	c = Point{X: t.X + t.P3.X, Y: t.Y + t.P3.Y}
	return a, b, c
}

func (t *Triangle) HitTest(p Point) bool {
	a, b, c := t.Vertices()
	return inTriangle(p, a, b, c)
}

func (t *Triangle) BoundingBox() Rect {
	a, b, c := t.Vertices()
	return boundsOf([]Point{a, b, c})
}

func (t *Triangle) Clone() Shape {
	c := *t
	return &c
}

// Path is a freehand polyline. With Erase set it clears pixels instead of
// painting them.
type Path struct {
	Base
	Erase  bool    `json:"-"`
	Points []Point `json:"points"`
}

func (p *Path) Kind() Kind {
	if p.Erase {
		return KindEraser
	}
	return KindPath
}

func (p *Path) HitTest(pt Point) bool {
	if len(p.Points) < 2 {
		return false
	}
	threshold := p.StrokeWidth/2 + HitPadding
	local := pt.Sub(p.Origin())
	for i := 0; i < len(p.Points)-1; i++ {
		if DistanceToSegment(local, p.Points[i], p.Points[i+1]) <= threshold {
			return true
		}
	}
	return false
}

func (p *Path) BoundingBox() Rect {
	if len(p.Points) == 0 {
		return Rect{X: p.X, Y: p.Y}
	}
	abs := make([]Point, len(p.Points))
	for i, pt := range p.Points {
		abs[i] = Point{X: p.X + pt.X, Y: p.Y + pt.Y}
	}
	return boundsOf(abs)
}

// Append adds an absolute position to the polyline.
func (p *Path) Append(abs Point) {
	p.Points = append(p.Points, abs.Sub(p.Origin()))
}

func (p *Path) Clone() Shape {
	c := *p
	c.Points = append([]Point(nil), p.Points...)
	return &c
}

// Image places an encoded raster inside a box. Data is never modified after
// creation, so clones share it.
type Image struct {
	Base
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Data   []byte  `json:"data"`
}

func (im *Image) Kind() Kind { return KindImage }

func (im *Image) HitTest(p Point) bool { return im.BoundingBox().Contains(p) }

func (im *Image) BoundingBox() Rect {
	return Rect{X: im.X, Y: im.Y, W: im.Width, H: im.Height}.Canon()
}

func (im *Image) Clone() Shape {
	c := *im
	return &c
}
