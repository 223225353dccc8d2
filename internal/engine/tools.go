package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/magicdraw/internal/shape"
)

// Tool selects what pointer gestures do.
type Tool string

const (
	ToolMove      Tool = "move"
	ToolPencil    Tool = "pencil"
	ToolBrush     Tool = "brush"
	ToolEraser    Tool = "eraser"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolTriangle  Tool = "triangle"
)

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	return []Tool{ToolMove, ToolPencil, ToolBrush, ToolEraser, ToolRectangle, ToolCircle, ToolTriangle}
}

// ParseTool resolves a tool by name. A few short aliases are accepted.
func ParseTool(s string) (Tool, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "rect":
		return ToolRectangle, nil
	case "select":
		return ToolMove, nil
	}
	for _, t := range Tools() {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// State is the interaction controller state.
type State int

const (
	StateIdle State = iota
	StateDrawing
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateDrawing:
		return "drawing"
	case StateDragging:
		return "dragging"
	}
	return "idle"
}

// Stroke is the style given to newly drawn shapes.
type Stroke struct {
	Color string
	Width float64
}

// DefaultStroke matches the toolbar defaults.
var DefaultStroke = Stroke{Color: "#000000", Width: 3}

// newStub allocates the in-progress shape for a drawing tool anchored at p.
func newStub(t Tool, p shape.Point, st Stroke) shape.Shape {
	base := shape.Base{ID: shape.NewID(), StrokeColor: st.Color, StrokeWidth: st.Width}
	switch t {
	case ToolPencil, ToolBrush:
		return &shape.Path{Base: base, Points: []shape.Point{p}}
	case ToolEraser:
		base.StrokeColor = "#000000"
		base.StrokeWidth = st.Width * 2
		return &shape.Path{Base: base, Erase: true, Points: []shape.Point{p}}
	case ToolRectangle:
		base.X, base.Y = p.X, p.Y
		return &shape.Rectangle{Base: base}
	case ToolCircle:
		base.X, base.Y = p.X, p.Y
		return &shape.Circle{Base: base}
	case ToolTriangle:
		base.X, base.Y = p.X, p.Y
		return &shape.Triangle{Base: base}
	}
	return nil
}

// extend updates the stub geometry for a pointer at p with the gesture
// anchored at anchor.
func extend(s shape.Shape, anchor, p shape.Point) {
	d := p.Sub(anchor)
	switch v := s.(type) {
	case *shape.Path:
		v.Append(p)
	case *shape.Rectangle:
		v.Width, v.Height = d.X, d.Y
	case *shape.Circle:
		v.Radius = math.Hypot(d.X, d.Y)
	case *shape.Triangle:
		v.P2 = shape.Point{X: -d.X, Y: d.Y}
		v.P3 = shape.Point{X: d.X, Y: d.Y}
	}
}
