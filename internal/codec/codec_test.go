package codec

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/magicdraw/internal/layer"
	"github.com/example/magicdraw/internal/shape"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			}
		}
	}
	return img
}

func TestDecodeSniffsFormats(t *testing.T) {
	src := checker(6, 4)
	for _, f := range []Format{PNG, JPEG, GIF, TIFF, BMP} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, src, f), f)

		got, format, err := Decode(buf.Bytes())
		require.NoError(t, err, f)
		assert.Equal(t, f, format)
		assert.Equal(t, src.Bounds(), got.Bounds(), f)
	}
}

func TestDecodeDataURL(t *testing.T) {
	raw, err := EncodePNG(checker(3, 3))
	require.NoError(t, err)
	url := DataURL(raw)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	img, f, err := Decode([]byte(url))
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, 3, img.Bounds().Dx())
}

func TestDecodeRejectsNonImages(t *testing.T) {
	for _, blob := range [][]byte{nil, []byte("hello"), []byte("data:text/plain,hi"), []byte("%PDF-1.4\n")} {
		_, _, err := Decode(blob)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, string(blob))
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("out/shot.JPG")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)
	_, err = FormatFromPath("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func sampleFile(t *testing.T) *File {
	t.Helper()
	bg := layer.New(layer.DefaultLayerID, layer.DefaultLayerName)
	bg.Shapes = shape.List{
		&shape.Rectangle{Base: shape.Base{ID: "r1", X: 4, Y: 5, StrokeColor: "#ff0000", StrokeWidth: 2}, Width: 10, Height: 8},
		&shape.Path{Base: shape.Base{ID: "p1", StrokeColor: "#000", StrokeWidth: 3}, Points: []shape.Point{{X: 1, Y: 1}, {X: 2, Y: 3}}},
	}
	top := layer.New("layer-2", "Ink")
	top.Blend = layer.BlendMultiply
	top.Filter = "blur(2px)"
	top.Opacity = 0.5
	raw, err := EncodePNG(checker(2, 2))
	require.NoError(t, err)
	top.Content = raw
	return &File{
		Title:         "sketch",
		Width:         32,
		Height:        24,
		Scale:         2,
		ActiveLayerID: "layer-2",
		Layers:        []*FileLayer{NewFileLayer(bg), NewFileLayer(top)},
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.magicdraw")
	require.NoError(t, SaveFile(path, sampleFile(t)))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FileVersion, f.Version)
	assert.Equal(t, "sketch", f.Title)
	assert.Equal(t, 2.0, f.Scale)
	require.Len(t, f.Layers, 2)

	bg, err := f.Layers[0].Restore()
	require.NoError(t, err)
	require.Len(t, bg.Shapes, 2)
	assert.Equal(t, shape.KindRectangle, bg.Shapes[0].Kind())
	assert.Equal(t, shape.Point{X: 4, Y: 5}, bg.Shapes[0].Origin())

	top, err := f.Layers[1].Restore()
	require.NoError(t, err)
	assert.Equal(t, layer.BlendMultiply, top.Blend)
	assert.Equal(t, "blur(2px)", top.Filter)
	_, format, err := Decode(top.Content)
	require.NoError(t, err)
	assert.Equal(t, PNG, format)
}

func TestReadRejectsBrokenDocuments(t *testing.T) {
	cases := map[string]string{
		"not json":  `{`,
		"no layers": `{"width":10,"height":10,"layers":[]}`,
		"bad size":  `{"width":0,"height":10,"layers":[{"id":"a","shapes":[]}]}`,
		"dup ids":   `{"width":1,"height":1,"layers":[{"id":"a","shapes":[]},{"id":"a","shapes":[]}]}`,
		"future":    `{"version":99,"width":1,"height":1,"layers":[{"id":"a","shapes":[]}]}`,
	}
	for name, doc := range cases {
		_, err := Read(strings.NewReader(doc))
		assert.Error(t, err, name)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, checker(20, 10), "test", 2))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
