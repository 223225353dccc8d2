package shape

import "math"

const (
	// HitPadding is added to half the stroke width when hit-testing strokes.
	HitPadding = 5.0
	// triangleEpsilon bounds the area mismatch tolerated by inTriangle.
	triangleEpsilon = 0.1
)

// Rect is a box in physical canvas pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Canon returns r with non-negative width and height.
func (r Rect) Canon() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// DistanceToSegment measures from p to the closest point of segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	cx := b.X - a.X
	cy := b.Y - a.Y
	dot := (p.X-a.X)*cx + (p.Y-a.Y)*cy
	lenSq := cx*cx + cy*cy
	param := -1.0
	if lenSq != 0 {
		param = dot / lenSq
	}
	var closest Point
	switch {
	case param < 0:
		closest = a
	case param > 1:
		closest = b
	default:
		closest = Point{X: a.X + param*cx, Y: a.Y + param*cy}
	}
	return distance(p, closest)
}

func distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// cross2 is twice the unsigned area of triangle pqr.
func cross2(p, q, r Point) float64 {
	return math.Abs((q.X-p.X)*(r.Y-p.Y) - (r.X-p.X)*(q.Y-p.Y))
}

func inTriangle(p, a, b, c Point) bool {
	whole := cross2(a, b, c)
	parts := cross2(p, a, b) + cross2(p, b, c) + cross2(p, c, a)
	return math.Abs(parts-whole) < triangleEpsilon
}

func boundsOf(pts []Point) Rect {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
