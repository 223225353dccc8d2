package render

import "image"

// The filter and blend stages work on straight (non-premultiplied) colour
// held in *image.RGBA buffers, because bild passes raw Pix bytes to its
// callbacks. toStraight and toPremultiplied convert at the stage edges.

func toStraight(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		a := dst.Pix[i+3]
		switch a {
		case 0:
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = 0, 0, 0
		case 255:
		default:
			for c := 0; c < 3; c++ {
				v := (uint32(dst.Pix[i+c])*255 + uint32(a)/2) / uint32(a)
				if v > 255 {
					v = 255
				}
				dst.Pix[i+c] = uint8(v)
			}
		}
	}
	return dst
}

func toPremultiplied(img *image.RGBA) *image.RGBA {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := uint32(img.Pix[i+3])
		if a == 255 {
			continue
		}
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = uint8((uint32(img.Pix[i+c])*a + 127) / 255)
		}
	}
	return img
}

// eraseWith clears dst wherever mask has coverage: dst *= 1 - maskAlpha.
// Both buffers are premultiplied and share a size.
func eraseWith(dst, mask []uint8) {
	for i := 3; i < len(dst) && i < len(mask); i += 4 {
		m := uint32(mask[i])
		if m == 0 {
			continue
		}
		keep := 255 - m
		for c := i - 3; c <= i; c++ {
			dst[c] = uint8((uint32(dst[c])*keep + 127) / 255)
		}
	}
}

// mixInto blends amount of full over base in place. amount is clamped.
func mixInto(base, full *image.RGBA, amount float64) *image.RGBA {
	amount = clamp01(amount)
	if amount == 1 {
		return full
	}
	if amount == 0 {
		return base
	}
	for i := range base.Pix {
		b := float64(base.Pix[i])
		base.Pix[i] = uint8(b + (float64(full.Pix[i])-b)*amount + 0.5)
	}
	return base
}
