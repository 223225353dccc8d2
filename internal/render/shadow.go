package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures a drop shadow cast by the opaque parts of an
// image.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
	Color   color.RGBA
}

// DefaultShadowOptions is the frame shadow used by exports.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  24,
		Offset:  image.Pt(16, 16),
		Opacity: 0.55,
		Color:   color.RGBA{A: 255},
	}
}

// ShadowResult is the output of Frame.
type ShadowResult struct {
	Image *image.RGBA
	// Offset is where the source's top-left corner landed inside the
	// expanded image.
	Offset image.Point
}

// Frame casts a shadow around img on a canvas grown to fit it. The result
// always has a zero origin.
func Frame(img *image.RGBA, opts ShadowOptions) ShadowResult {
	if img == nil {
		return ShadowResult{}
	}
	if img.Bounds().Empty() || opts.Opacity <= 0 {
		return ShadowResult{Image: img}
	}
	radius := max(opts.Radius, 0)
	src := img.Bounds()
	padded := src.Inset(-radius)
	cast := padded.Add(opts.Offset)
	all := src.Union(cast)

	dst := image.NewRGBA(all.Sub(all.Min))
	paintShadow(dst, img, cast.Min.Sub(all.Min), radius, opts)
	draw.Draw(dst, src.Sub(all.Min), img, src.Min, draw.Over)
	return ShadowResult{Image: dst, Offset: src.Min.Sub(all.Min)}
}

// DropShadow is the CSS drop-shadow filter: the shadow is painted behind
// img and anything cast outside the original bounds is clipped.
func DropShadow(img *image.RGBA, opts ShadowOptions) *image.RGBA {
	if img == nil || img.Bounds().Empty() || opts.Opacity <= 0 {
		return img
	}
	radius := max(opts.Radius, 0)
	b := img.Bounds()
	dst := image.NewRGBA(b)
	paintShadow(dst, img, b.Min.Add(opts.Offset).Sub(image.Pt(radius, radius)), radius, opts)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// paintShadow blurs the alpha of img and paints it into dst with its
// padded top-left corner at origin.
func paintShadow(dst, img *image.RGBA, origin image.Point, radius int, opts ShadowOptions) {
	src := img.Bounds()
	padded := src.Inset(-radius)
	mask := image.NewGray(padded.Sub(padded.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			if a := img.RGBAAt(x, y).A; a != 0 {
				mask.SetGray(x-padded.Min.X, y-padded.Min.Y, color.Gray{Y: a})
			}
		}
	}
	blurred := blurGray(mask, radius)

	opacity := clamp01(opts.Opacity) * float64(opts.Color.A) / 255
	tint := opts.Color
	tint.A = 255
	shade := color.NRGBA{R: tint.R, G: tint.G, B: tint.B, A: uint8(opacity*255 + 0.5)}
	if shade.A == 0 {
		return
	}
	draw.DrawMask(dst, blurred.Bounds().Add(origin), image.NewUniform(shade), image.Point{}, blurred, image.Point{}, draw.Over)
}

// blurGray is a separable box blur built on running prefix sums.
func blurGray(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		out := image.NewGray(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tmp := image.NewGray(bounds)
	dst := image.NewGray(bounds)

	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(row[x])
		}
		for x := 0; x < w; x++ {
			x0, x1 := max(x-radius, 0), min(x+radius, w-1)
			tmp.Pix[y*tmp.Stride+x] = uint8((prefix[x1+1] - prefix[x0]) / (x1 - x0 + 1))
		}
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0, y1 := max(y-radius, 0), min(y+radius, h-1)
			dst.Pix[y*dst.Stride+x] = uint8((prefix[y1+1] - prefix[y0]) / (y1 - y0 + 1))
		}
	}
	return dst
}
