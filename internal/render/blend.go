package render

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/fcolor"

	"github.com/example/magicdraw/internal/layer"
)

// separable is a per-channel blend function B(cb, cs) on straight colour.
type separable func(cb, cs float64) float64

var blendFuncs = map[layer.BlendMode]separable{
	layer.BlendNormal:     func(_, cs float64) float64 { return cs },
	layer.BlendMultiply:   multiply,
	layer.BlendScreen:     screen,
	layer.BlendOverlay:    func(cb, cs float64) float64 { return hardLight(cs, cb) },
	layer.BlendDarken:     math.Min,
	layer.BlendLighten:    math.Max,
	layer.BlendColorDodge: colorDodge,
	layer.BlendColorBurn:  colorBurn,
	layer.BlendHardLight:  hardLight,
	layer.BlendSoftLight:  softLight,
	layer.BlendDifference: func(cb, cs float64) float64 { return math.Abs(cb - cs) },
	layer.BlendExclusion:  func(cb, cs float64) float64 { return cb + cs - 2*cb*cs },
}

func multiply(cb, cs float64) float64 { return cb * cs }

func screen(cb, cs float64) float64 { return cb + cs - cb*cs }

func hardLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return multiply(cb, 2*cs)
	}
	return screen(cb, 2*cs-1)
}

func colorDodge(cb, cs float64) float64 {
	switch {
	case cb == 0:
		return 0
	case cs >= 1:
		return 1
	}
	return math.Min(1, cb/(1-cs))
}

func colorBurn(cb, cs float64) float64 {
	switch {
	case cb >= 1:
		return 1
	case cs <= 0:
		return 0
	}
	return 1 - math.Min(1, (1-cb)/cs)
}

func softLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return cb - (1-2*cs)*cb*(1-cb)
	}
	var d float64
	if cb <= 0.25 {
		d = ((16*cb-12)*cb + 4) * cb
	} else {
		d = math.Sqrt(cb)
	}
	return cb + (2*cs-1)*(d-cb)
}

// composeFunc returns the bild callback that source-over composites a
// straight-alpha source onto a straight-alpha backdrop with mode, after
// scaling the source alpha by opacity.
func composeFunc(mode layer.BlendMode, opacity float64) func(fcolor.RGBAF64, fcolor.RGBAF64) fcolor.RGBAF64 {
	mix, ok := blendFuncs[mode]
	if !ok {
		mix = blendFuncs[layer.BlendNormal]
	}
	opacity = clamp01(opacity)
	return func(b, s fcolor.RGBAF64) fcolor.RGBAF64 {
		as := s.A * opacity
		if as == 0 {
			return b
		}
		ab := b.A
		ao := as + ab*(1-as)
		channel := func(cb, cs float64) float64 {
			co := cs*as*(1-ab) + cb*ab*(1-as) + as*ab*mix(cb, cs)
			return co / ao
		}
		return fcolor.RGBAF64{
			R: channel(b.R, s.R),
			G: channel(b.G, s.G),
			B: channel(b.B, s.B),
			A: ao,
		}
	}
}

// composite blends src onto acc. Both are straight-alpha and the same size.
func composite(acc, src *image.RGBA, mode layer.BlendMode, opacity float64) *image.RGBA {
	return blend.Blend(acc, src, composeFunc(mode, opacity))
}
