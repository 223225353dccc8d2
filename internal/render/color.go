package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// DefaultHalo is the selection outline colour used when no theme sets one.
var DefaultHalo = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}

// ParseColor accepts CSS colour names, #rgb, #rrggbb, #rrggbbaa and the
// rgb()/rgba() functional forms.
func ParseColor(s string) (color.RGBA, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	if spec == "" {
		return color.RGBA{}, fmt.Errorf("color cannot be empty")
	}
	if spec == "transparent" {
		return color.RGBA{}, nil
	}
	if c, ok := colornames.Map[spec]; ok {
		return c, nil
	}
	if strings.HasPrefix(spec, "#") {
		return parseHex(spec)
	}
	if strings.HasPrefix(spec, "rgb") {
		return parseRGBFunc(spec)
	}
	return color.RGBA{}, fmt.Errorf("invalid color %q", s)
}

func parseHex(spec string) (color.RGBA, error) {
	hex := spec[1:]
	if len(hex) == 3 || len(hex) == 4 {
		var b strings.Builder
		for _, r := range hex {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		hex = b.String()
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", spec)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", spec)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	n := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return color.RGBAModel.Convert(n).(color.RGBA), nil
}

func parseRGBFunc(spec string) (color.RGBA, error) {
	funcs, err := parseFuncs(spec)
	if err != nil || len(funcs) != 1 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", spec)
	}
	f := funcs[0]
	if (f.name != "rgb" && f.name != "rgba") || len(f.args) < 3 || len(f.args) > 4 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", spec)
	}
	var ch [4]uint8
	ch[3] = 255
	for i, a := range f.args {
		var v float64
		switch {
		case a.kind == argPercent:
			v = a.num
		case a.kind == argNumber && i == 3:
			v = a.num
		case a.kind == argNumber:
			v = a.num / 255
		default:
			return color.RGBA{}, fmt.Errorf("invalid color %q", spec)
		}
		ch[i] = uint8(clamp01(v)*255 + 0.5)
	}
	// color.RGBA is alpha-premultiplied.
	c := color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}

// Hex formats c as #rrggbb, or #rrggbbaa when it is not opaque.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A != 0xff {
		return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
	}
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
