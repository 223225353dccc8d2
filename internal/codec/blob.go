// Package codec converts between in-memory rasters, encoded image blobs and
// the on-disk document format.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for blobs that are not a decodable image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format names an image encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
	WebP Format = "webp"
)

var mimeFormats = map[string]Format{
	"image/png":  PNG,
	"image/jpeg": JPEG,
	"image/gif":  GIF,
	"image/tiff": TIFF,
	"image/bmp":  BMP,
	"image/webp": WebP,
}

// FormatFromExt maps a file extension, with or without the dot, to a format.
func FormatFromExt(ext string) (Format, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	switch ext {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "tif", "tiff":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("extension %q: %w", ext, ErrUnsupportedFormat)
}

// FormatFromPath is FormatFromExt applied to the extension of path.
func FormatFromPath(path string) (Format, error) {
	return FormatFromExt(filepath.Ext(path))
}

// Sniff identifies the format of blob from its content. Data URLs are
// unwrapped first.
func Sniff(blob []byte) (Format, error) {
	raw, err := Unwrap(blob)
	if err != nil {
		return "", err
	}
	kind, err := filetype.Match(raw)
	if err != nil {
		return "", fmt.Errorf("sniff: %w", err)
	}
	f, ok := mimeFormats[kind.MIME.Value]
	if !ok {
		return "", ErrUnsupportedFormat
	}
	return f, nil
}

// Unwrap returns the raw bytes of blob, decoding a base64 data URL when blob
// holds one.
func Unwrap(blob []byte) ([]byte, error) {
	if !bytes.HasPrefix(blob, []byte("data:")) {
		return blob, nil
	}
	comma := bytes.IndexByte(blob, ',')
	if comma < 0 {
		return nil, fmt.Errorf("data url: missing payload: %w", ErrUnsupportedFormat)
	}
	meta := string(blob[len("data:"):comma])
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data url: %q is not base64: %w", meta, ErrUnsupportedFormat)
	}
	payload := blob[comma+1:]
	out := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(out, payload)
	if err != nil {
		return nil, fmt.Errorf("data url: %w", err)
	}
	return out[:n], nil
}

// DataURL wraps raw image bytes as a base64 data URL with a sniffed MIME
// type.
func DataURL(raw []byte) string {
	mime := "application/octet-stream"
	if kind, err := filetype.Match(raw); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// Decode turns an encoded blob into a raster. Only image formats are
// accepted; the format is sniffed from content, never from a name.
func Decode(blob []byte) (image.Image, Format, error) {
	raw, err := Unwrap(blob)
	if err != nil {
		return nil, "", err
	}
	if len(raw) == 0 || !filetype.IsImage(raw) {
		return nil, "", ErrUnsupportedFormat
	}
	f, err := Sniff(raw)
	if err != nil {
		return nil, "", err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, f, fmt.Errorf("decode %s: %w", f, err)
	}
	return img, f, nil
}

// DecodeConfig reports the pixel size of an encoded blob without decoding
// the whole raster.
func DecodeConfig(blob []byte) (image.Config, error) {
	raw, err := Unwrap(blob)
	if err != nil {
		return image.Config{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return image.Config{}, fmt.Errorf("decode config: %w", errors.Join(ErrUnsupportedFormat, err))
	}
	return cfg, nil
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case GIF:
		return gif.Encode(w, img, nil)
	case TIFF:
		return tiff.Encode(w, img, nil)
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("encode %s: %w", f, ErrUnsupportedFormat)
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
