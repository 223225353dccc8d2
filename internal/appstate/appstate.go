// Package appstate is the interactive viewer: a shiny window that shows a
// drawing over a checkerboard and feeds mouse and keyboard input to the
// engine.
package appstate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/magicdraw/internal/engine"
	"github.com/example/magicdraw/internal/layer"
	"github.com/example/magicdraw/internal/render"
	"github.com/example/magicdraw/internal/theme"
)

const (
	tabHeight    = 24
	bottomHeight = 24
	tabWidth     = 96
	buttonHeight = 24
	checkerSize  = 8
	minZoom      = 0.05
	maxZoom      = 16
)

var toolbarWidth = 88

var messageFace font.Face = basicfont.Face7x13

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		slog.Warn("parse message font", "err", err)
		return
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 20, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		slog.Warn("message font face", "err", err)
		return
	}
	messageFace = face
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

// label is a flat button with a line of text. The top strip uses it for
// layers and the status line for shortcuts.
type label struct {
	text     string
	theme    *theme.Theme
	rect     image.Rectangle
	onSelect func()
}

func (l *label) Draw(dst *image.RGBA, state ButtonState) {
	c := l.theme.ButtonBackground
	switch state {
	case StateHover:
		c = blend(l.theme.ButtonBackground, l.theme.ButtonActive)
	case StatePressed:
		c = l.theme.ButtonActive
	}
	draw.Draw(dst, l.rect, &image.Uniform{c}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(l.theme.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(l.rect.Min.X+4, l.rect.Min.Y+16)}
	d.DrawString(clip(l.text, l.rect.Dx()-8))
}

func (l *label) Rect() image.Rectangle { return l.rect }

func (l *label) SetRect(r image.Rectangle) { l.rect = r }

func (l *label) Activate() {
	if l.onSelect != nil {
		l.onSelect()
	}
}

// ToolButton represents a toolbar button that selects a drawing tool.
type ToolButton struct {
	label
	tool engine.Tool
}

func newToolButton(t engine.Tool, th *theme.Theme, onSelect func()) *CacheButton {
	text := string(t)
	if r := ToolKey(t); r != 0 {
		text = fmt.Sprintf("%c:%s", r-'a'+'A', t)
	}
	return &CacheButton{Button: &ToolButton{label: label{text: text, theme: th, onSelect: onSelect}, tool: t}}
}

func blend(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((int(a.R) + int(b.R)) / 2),
		G: uint8((int(a.G) + int(b.G)) / 2),
		B: uint8((int(a.B) + int(b.B)) / 2),
		A: 255,
	}
}

// clip shortens s to fit width pixels of the 7px wide basic font.
func clip(s string, width int) string {
	n := max(width/7, 1)
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "~"
}

// fitZoom is the zoom at which a w×h canvas fills the drawing area.
func fitZoom(w, h, winW, winH int) float64 {
	availW := winW - toolbarWidth
	availH := winH - tabHeight - bottomHeight
	if w <= 0 || h <= 0 || availW <= 0 || availH <= 0 {
		return 1
	}
	return math.Min(float64(availW)/float64(w), float64(availH)/float64(h))
}

// canvasRect is where a w×h image lands at zoom. The canvas origin stays
// anchored under the layer strip.
func canvasRect(w, h int, zoom float64) image.Rectangle {
	x0 := toolbarWidth
	y0 := tabHeight
	return image.Rect(x0, y0, x0+int(float64(w)*zoom), y0+int(float64(h)*zoom))
}

// view maps between window pixels and logical canvas coordinates.
type view struct {
	rect  image.Rectangle
	zoom  float64
	scale float64
}

func newView(physW, physH int, zoom, scale float64) view {
	if scale <= 0 {
		scale = 1
	}
	return view{rect: canvasRect(physW, physH, zoom), zoom: zoom, scale: scale}
}

// toLogical converts a window position to logical canvas coordinates.
func (v view) toLogical(x, y float32) (float64, float64) {
	px := (float64(x) - float64(v.rect.Min.X)) / v.zoom
	py := (float64(y) - float64(v.rect.Min.Y)) / v.zoom
	return px / v.scale, py / v.scale
}

func (v view) contains(x, y float32) bool {
	return image.Pt(int(x), int(y)).In(v.rect)
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if (((x-rect.Min.X)/size)+((y-rect.Min.Y)/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

// backdrop caches the window background with the checkerboard behind the
// canvas.
type backdrop struct {
	img    *image.RGBA
	bounds image.Rectangle
	canvas image.Rectangle
	theme  *theme.Theme
}

func (b *backdrop) drawTo(dst *image.RGBA, canvas image.Rectangle, th *theme.Theme) {
	if b.img == nil || b.bounds != dst.Bounds() || b.canvas != canvas || b.theme != th {
		b.img = image.NewRGBA(dst.Bounds())
		b.bounds, b.canvas, b.theme = dst.Bounds(), canvas, th
		draw.Draw(b.img, b.img.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)
		drawCheckerboard(b.img, canvas, checkerSize, th.CheckerLight, th.CheckerDark)
	}
	draw.Draw(dst, dst.Bounds(), b.img, image.Point{}, draw.Src)
}

// scaleOnto draws src into rect of dst. Downscaling filters, upscaling keeps
// hard pixels.
func scaleOnto(dst *image.RGBA, rect image.Rectangle, src *image.RGBA, zoom float64) {
	if src == nil {
		return
	}
	var s xdraw.Scaler = xdraw.NearestNeighbor
	if zoom < 1 {
		s = xdraw.ApproxBiLinear
	}
	s.Scale(dst, rect, src, src.Bounds(), draw.Over, nil)
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.Set(x, rect.Min.Y, col)
		img.Set(x, rect.Max.Y-1, col)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.Set(rect.Min.X, y, col)
		img.Set(rect.Max.X-1, y, col)
	}
}

// layerTitle is the tab text for a layer.
func layerTitle(l *layer.Layer) string {
	t := l.Name
	if !l.Visible {
		t = "(" + t + ")"
	}
	if l.Locked {
		t += "*"
	}
	return t
}

// chrome holds the window's clickable parts between frames.
type chrome struct {
	tools     []*CacheButton
	tabs      []*label
	shortcuts []*label
	hover     Button
}

func (c *chrome) hit(p image.Point) Button {
	for _, b := range c.tools {
		if p.In(b.Rect()) {
			return b
		}
	}
	for _, b := range c.tabs {
		if p.In(b.Rect()) {
			return b
		}
	}
	for _, b := range c.shortcuts {
		if p.In(b.Rect()) {
			return b
		}
	}
	return nil
}

func (c *chrome) state(b Button, pressed bool) ButtonState {
	switch {
	case pressed:
		return StatePressed
	case b == c.hover:
		return StateHover
	}
	return StateDefault
}

func (c *chrome) drawTabs(dst *image.RGBA, th *theme.Theme, layers []*layer.Layer, active string, activate func(string)) {
	draw.Draw(dst, image.Rect(0, 0, dst.Bounds().Dx(), tabHeight), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	title := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13, Dot: fixed.P(4, 16)}
	title.DrawString("MagicDraw")

	c.tabs = c.tabs[:0]
	x := toolbarWidth
	// Topmost layer first so the strip reads like a stack.
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		id := l.ID
		tb := &label{text: layerTitle(l), theme: th, rect: image.Rect(x, 0, x+tabWidth, tabHeight), onSelect: func() { activate(id) }}
		tb.Draw(dst, c.state(tb, id == active))
		c.tabs = append(c.tabs, tb)
		x += tabWidth
	}
}

func (c *chrome) drawToolbar(dst *image.RGBA, th *theme.Theme, current engine.Tool, stroke engine.Stroke) {
	draw.Draw(dst, image.Rect(0, tabHeight, toolbarWidth, dst.Bounds().Dy()-bottomHeight),
		&image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	y := tabHeight
	for _, cb := range c.tools {
		cb.SetRect(image.Rect(0, y, toolbarWidth, y+buttonHeight))
		tb := cb.Button.(*ToolButton)
		cb.Draw(dst, c.state(cb, tb.tool == current))
		y += buttonHeight
	}
	y += 6
	swatch := image.Rect(4, y, toolbarWidth-4, y+16)
	if col, err := render.ParseColor(stroke.Color); err == nil {
		drawCheckerboard(dst, swatch, 4, th.CheckerLight, th.CheckerDark)
		draw.Draw(dst, swatch, &image.Uniform{col}, image.Point{}, draw.Over)
	}
	drawRect(dst, swatch, th.ButtonText)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ButtonText), Face: basicfont.Face7x13, Dot: fixed.P(4, y+32)}
	d.DrawString(fmt.Sprintf("%gpx", stroke.Width))
}

func (c *chrome) drawStatus(dst *image.RGBA, th *theme.Theme, status string, trigger func(Action)) {
	h := dst.Bounds().Dy()
	rect := image.Rect(0, h-bottomHeight, dst.Bounds().Dx(), h)
	draw.Draw(dst, rect, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	c.shortcuts = c.shortcuts[:0]
	x := 4
	for _, sc := range []struct {
		text   string
		action Action
	}{
		{"^Z:undo", ActionUndo},
		{"^Y:redo", ActionRedo},
		{"N:layer", ActionNewLayer},
		{"^S:save", ActionSave},
		{"Q:quit", ActionQuit},
	} {
		a := sc.action
		w := len(sc.text)*7 + 8
		b := &label{text: sc.text, theme: th, rect: image.Rect(x, h-bottomHeight+2, x+w, h-2), onSelect: func() { trigger(a) }}
		b.Draw(dst, c.state(b, false))
		c.shortcuts = append(c.shortcuts, b)
		x += w + 4
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
		Dot: fixed.P(x+8, h-bottomHeight+16)}
	d.DrawString(clip(status, dst.Bounds().Dx()-x-12))
}

// paintState is everything one frame needs.
type paintState struct {
	width, height int
	theme         *theme.Theme
	composite     *image.RGBA
	preview       *image.RGBA
	view          view
	layers        []*layer.Layer
	active        string
	tool          engine.Tool
	stroke        engine.Stroke
	status        string
	message       string
	messageUntil  time.Time
	activate      func(string)
	trigger       func(Action)
}

func (c *chrome) drawFrame(dst *image.RGBA, bg *backdrop, st paintState) {
	bg.drawTo(dst, st.view.rect, st.theme)
	scaleOnto(dst, st.view.rect, st.composite, st.view.zoom)
	scaleOnto(dst, st.view.rect, st.preview, st.view.zoom)
	drawRect(dst, st.view.rect.Inset(-1), st.theme.Foreground)

	c.drawTabs(dst, st.theme, st.layers, st.active, st.activate)
	c.drawToolbar(dst, st.theme, st.tool, st.stroke)
	c.drawStatus(dst, st.theme, st.status, st.trigger)

	if st.message != "" && time.Now().Before(st.messageUntil) {
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(st.theme.ButtonText), Face: messageFace}
		wmsg := d.MeasureString(st.message).Ceil()
		ascent := messageFace.Metrics().Ascent.Ceil()
		descent := messageFace.Metrics().Descent.Ceil()
		px := (st.width - wmsg) / 2
		py := (st.height-ascent-descent)/2 + ascent
		rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
		b := st.theme.ButtonBackground
		draw.Draw(dst, rect, &image.Uniform{color.NRGBA{R: b.R, G: b.G, B: b.B, A: 230}}, image.Point{}, draw.Over)
		drawRect(dst, rect, st.theme.ButtonText)
		d.Dot = fixed.P(px, py)
		d.DrawString(st.message)
	}
}
