package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
)

// filterStep transforms a straight-alpha layer image.
type filterStep func(*image.RGBA) *image.RGBA

// Filter is a parsed CSS filter chain.
type Filter struct {
	src   string
	steps []filterStep
}

// String returns the source text.
func (f *Filter) String() string { return f.src }

// Identity reports whether the filter leaves images untouched.
func (f *Filter) Identity() bool { return f == nil || len(f.steps) == 0 }

// ParseFilter compiles a CSS filter value such as
// "blur(2px) grayscale(50%)". An empty value or "none" is the identity.
func ParseFilter(s string) (*Filter, error) {
	f := &Filter{src: s}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return f, nil
	}
	funcs, err := parseFuncs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", s, err)
	}
	for _, fn := range funcs {
		step, err := compileStep(fn)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", s, err)
		}
		f.steps = append(f.steps, step)
	}
	return f, nil
}

// Apply runs the chain over a straight-alpha image.
func (f *Filter) Apply(img *image.RGBA) *image.RGBA {
	if f.Identity() {
		return img
	}
	for _, step := range f.steps {
		img = step(img)
	}
	return img
}

// amount reads the single optional n|% argument of the colour filters.
func amount(fn cssFunc, def float64) (float64, error) {
	switch len(fn.args) {
	case 0:
		return def, nil
	case 1:
		a := fn.args[0]
		if a.kind != argNumber && a.kind != argPercent {
			return 0, fmt.Errorf("%s: expected a number or percentage", fn.name)
		}
		if a.num < 0 {
			return 0, fmt.Errorf("%s: negative amount", fn.name)
		}
		return a.num, nil
	}
	return 0, fmt.Errorf("%s: too many arguments", fn.name)
}

func length(a cssArg) (float64, error) {
	switch {
	case a.kind == argNumber && a.num == 0:
		return 0, nil
	case a.kind == argDimension && a.unit == "px":
		return a.num, nil
	}
	return 0, fmt.Errorf("expected a px length")
}

func compileStep(fn cssFunc) (filterStep, error) {
	switch fn.name {
	case "blur":
		r := 0.0
		if len(fn.args) > 1 {
			return nil, fmt.Errorf("blur: too many arguments")
		}
		if len(fn.args) == 1 {
			v, err := length(fn.args[0])
			if err != nil {
				return nil, fmt.Errorf("blur: %w", err)
			}
			r = v
		}
		return func(img *image.RGBA) *image.RGBA {
			if r <= 0 {
				return img
			}
			return toStraight(blur.Gaussian(toPremultiplied(img), r))
		}, nil
	case "brightness":
		n, err := amount(fn, 1)
		if err != nil {
			return nil, err
		}
		return func(img *image.RGBA) *image.RGBA { return keepAlpha(img, adjust.Brightness(img, n-1)) }, nil
	case "contrast":
		n, err := amount(fn, 1)
		if err != nil {
			return nil, err
		}
		return func(img *image.RGBA) *image.RGBA { return keepAlpha(img, adjust.Contrast(img, n-1)) }, nil
	case "saturate":
		n, err := amount(fn, 1)
		if err != nil {
			return nil, err
		}
		return func(img *image.RGBA) *image.RGBA { return keepAlpha(img, adjust.Saturation(img, n-1)) }, nil
	case "grayscale":
		n, err := amount(fn, 1)
		if err != nil {
			return nil, err
		}
		return func(img *image.RGBA) *image.RGBA { return mixInto(img, keepAlpha(img, clone.AsRGBA(effect.Grayscale(img))), n) }, nil
	case "sepia":
		n, err := amount(fn, 1)
		if err != nil {
			return nil, err
		}
		return func(img *image.RGBA) *image.RGBA { return mixInto(img, keepAlpha(img, effect.Sepia(img)), n) }, nil
	case "invert":
		n, err := amount(fn, 1)
		if err != nil {
			return nil, err
		}
		return func(img *image.RGBA) *image.RGBA { return mixInto(img, keepAlpha(img, effect.Invert(img)), n) }, nil
	case "opacity":
		n, err := amount(fn, 1)
		if err != nil {
			return nil, err
		}
		return func(img *image.RGBA) *image.RGBA { return scaleAlpha(img, n) }, nil
	case "hue-rotate":
		deg := 0.0
		if len(fn.args) > 1 {
			return nil, fmt.Errorf("hue-rotate: too many arguments")
		}
		if len(fn.args) == 1 {
			a := fn.args[0]
			switch {
			case a.kind == argNumber && a.num == 0:
			case a.kind == argDimension:
				v, err := angle(a)
				if err != nil {
					return nil, err
				}
				deg = v
			default:
				return nil, fmt.Errorf("hue-rotate: expected an angle")
			}
		}
		shift := int(math.Round(deg))
		return func(img *image.RGBA) *image.RGBA {
			if shift%360 == 0 {
				return img
			}
			return keepAlpha(img, adjust.Hue(img, shift))
		}, nil
	case "drop-shadow":
		return compileDropShadow(fn)
	}
	return nil, fmt.Errorf("unknown filter function %q", fn.name)
}

func angle(a cssArg) (float64, error) {
	switch a.unit {
	case "deg":
		return a.num, nil
	case "rad":
		return a.num * 180 / math.Pi, nil
	case "grad":
		return a.num * 0.9, nil
	case "turn":
		return a.num * 360, nil
	}
	return 0, fmt.Errorf("hue-rotate: unknown angle unit %q", a.unit)
}

func compileDropShadow(fn cssFunc) (filterStep, error) {
	var lengths []float64
	opts := ShadowOptions{Opacity: 1, Color: color.RGBA{A: 255}}
	for _, a := range fn.args {
		if a.kind == argColor {
			c, err := ParseColor(a.text)
			if err != nil {
				return nil, fmt.Errorf("drop-shadow: %w", err)
			}
			opts.Color = c
			continue
		}
		v, err := length(a)
		if err != nil {
			return nil, fmt.Errorf("drop-shadow: %w", err)
		}
		lengths = append(lengths, v)
	}
	if len(lengths) < 2 || len(lengths) > 3 {
		return nil, fmt.Errorf("drop-shadow: expected offset-x offset-y [blur]")
	}
	opts.Offset = image.Pt(int(math.Round(lengths[0])), int(math.Round(lengths[1])))
	if len(lengths) == 3 {
		opts.Radius = int(math.Round(lengths[2]))
	}
	// Colour components of color.RGBA are premultiplied; recover the tint.
	if opts.Color.A > 0 && opts.Color.A < 255 {
		n := color.NRGBAModel.Convert(opts.Color).(color.NRGBA)
		opts.Color = color.RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
	}
	return func(img *image.RGBA) *image.RGBA {
		return toStraight(DropShadow(toPremultiplied(img), opts))
	}, nil
}

// keepAlpha copies the alpha channel of src into out. bild colour
// adjustments sometimes rewrite alpha as opaque.
func keepAlpha(src, out *image.RGBA) *image.RGBA {
	for i := 3; i < len(out.Pix) && i < len(src.Pix); i += 4 {
		out.Pix[i] = src.Pix[i]
	}
	return out
}

func scaleAlpha(img *image.RGBA, n float64) *image.RGBA {
	n = clamp01(n)
	if n == 1 {
		return img
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i])*n + 0.5)
	}
	return img
}
