// Package layer holds the ordered layer stack of a drawing and the shapes
// each layer owns.
package layer

import (
	"strings"

	"github.com/example/magicdraw/internal/shape"
)

// BlendMode names a CSS mix-blend-mode.
type BlendMode string

const (
	BlendNormal     BlendMode = "normal"
	BlendMultiply   BlendMode = "multiply"
	BlendScreen     BlendMode = "screen"
	BlendOverlay    BlendMode = "overlay"
	BlendDarken     BlendMode = "darken"
	BlendLighten    BlendMode = "lighten"
	BlendColorDodge BlendMode = "color-dodge"
	BlendColorBurn  BlendMode = "color-burn"
	BlendHardLight  BlendMode = "hard-light"
	BlendSoftLight  BlendMode = "soft-light"
	BlendDifference BlendMode = "difference"
	BlendExclusion  BlendMode = "exclusion"
)

// BlendModes lists every supported mode in display order.
func BlendModes() []BlendMode {
	return []BlendMode{
		BlendNormal, BlendMultiply, BlendScreen, BlendOverlay, BlendDarken, BlendLighten,
		BlendColorDodge, BlendColorBurn, BlendHardLight, BlendSoftLight, BlendDifference, BlendExclusion,
	}
}

// ParseBlend normalises s to a known mode, falling back to normal.
func ParseBlend(s string) BlendMode {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range BlendModes() {
		if string(m) == s {
			return m
		}
	}
	return BlendNormal
}

// Layer is an independently composited collection of shapes.
type Layer struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Visible bool       `json:"isVisible"`
	Opacity float64    `json:"opacity"`
	Locked  bool       `json:"isLocked"`
	Blend   BlendMode  `json:"blendMode,omitempty"`
	Filter  string     `json:"filter,omitempty"`
	Shapes  shape.List `json:"shapes"`
	// Content is an optional encoded raster of the whole layer kept for
	// persistence. It is rehydrated into an image shape when the layer has
	// no shapes of its own.
	Content []byte `json:"-"`
}

// New returns a visible, unlocked, fully opaque layer.
func New(id, name string) *Layer {
	return &Layer{ID: id, Name: name, Visible: true, Opacity: 1, Blend: BlendNormal}
}

// Clone deep-copies the layer and every shape it owns.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Shapes = make(shape.List, len(l.Shapes))
	for i, s := range l.Shapes {
		c.Shapes[i] = s.Clone()
	}
	return &c
}

// Find returns the shape with id and its index, or nil and -1.
func (l *Layer) Find(id string) (shape.Shape, int) {
	for i, s := range l.Shapes {
		if s.Common().ID == id {
			return s, i
		}
	}
	return nil, -1
}

// HitTest returns the topmost shape containing p.
func (l *Layer) HitTest(p shape.Point) shape.Shape {
	for i := len(l.Shapes) - 1; i >= 0; i-- {
		if l.Shapes[i].HitTest(p) {
			return l.Shapes[i]
		}
	}
	return nil
}

// HasImages reports whether any shape on the layer is an image.
func (l *Layer) HasImages() bool {
	for _, s := range l.Shapes {
		if s.Kind() == shape.KindImage {
			return true
		}
	}
	return false
}

func clampOpacity(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
