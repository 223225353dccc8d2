package appstate

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/mobile/event/mouse"

	"github.com/example/magicdraw/internal/engine"
	"github.com/example/magicdraw/internal/theme"
)

func TestFitZoom(t *testing.T) {
	winW := toolbarWidth + 400
	winH := tabHeight + bottomHeight + 300
	if z := fitZoom(800, 600, winW, winH); z != 0.5 {
		t.Fatalf("expected 0.5, got %v", z)
	}
	if z := fitZoom(800, 600, 10, 10); z != 1 {
		t.Fatalf("expected fallback zoom 1 for a tiny window, got %v", z)
	}
}

func TestViewToLogical(t *testing.T) {
	v := newView(800, 600, 0.5, 2)
	if v.rect != image.Rect(toolbarWidth, tabHeight, toolbarWidth+400, tabHeight+300) {
		t.Fatalf("unexpected canvas rect %v", v.rect)
	}
	x, y := v.toLogical(float32(toolbarWidth+100), float32(tabHeight+50))
	if math.Abs(x-100) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Fatalf("expected 100,50 got %v,%v", x, y)
	}
	if !v.contains(float32(toolbarWidth+1), float32(tabHeight+1)) {
		t.Fatalf("expected point inside the canvas")
	}
	if v.contains(1, 1) {
		t.Fatalf("toolbar point must be outside the canvas")
	}
}

func TestClip(t *testing.T) {
	if got := clip("abcdefghij", 35); got != "abcd~" {
		t.Fatalf("got %q", got)
	}
	if got := clip("abc", 70); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestDrawFrameAndHitTesting(t *testing.T) {
	eng := engine.New(100, 100)
	defer eng.Close()
	eng.AddLayer("Top")
	layers := eng.Layers()

	composite := image.NewRGBA(image.Rect(0, 0, 100, 100))
	red := color.RGBA{255, 0, 0, 255}
	draw.Draw(composite, composite.Bounds(), &image.Uniform{red}, image.Point{}, draw.Src)

	var c chrome
	var picked engine.Tool
	for _, tool := range engine.Tools() {
		tool := tool
		c.tools = append(c.tools, newToolButton(tool, theme.Default(), func() { picked = tool }))
	}
	var activated string
	var triggered Action
	dst := image.NewRGBA(image.Rect(0, 0, 400, 300))
	var bg backdrop
	c.drawFrame(dst, &bg, paintState{
		width:     400,
		height:    300,
		theme:     theme.Default(),
		composite: composite,
		view:      newView(100, 100, 1, 1),
		layers:    layers,
		active:    layers[1].ID,
		tool:      engine.ToolPencil,
		stroke:    engine.DefaultStroke,
		status:    "ready",
		activate:  func(id string) { activated = id },
		trigger:   func(a Action) { triggered = a },
	})

	if got := dst.RGBAAt(toolbarWidth+50, tabHeight+50); got != red {
		t.Fatalf("expected composite pixel, got %v", got)
	}

	b := c.hit(image.Pt(5, tabHeight+5))
	if b == nil {
		t.Fatalf("expected the first tool button")
	}
	b.Activate()
	if picked != engine.ToolMove {
		t.Fatalf("expected move tool, got %q", picked)
	}

	// The strip lists the topmost layer first.
	c.hit(image.Pt(toolbarWidth+tabWidth+5, 5)).Activate()
	if activated != layers[0].ID {
		t.Fatalf("expected bottom layer in the second tab, got %q", activated)
	}

	c.hit(image.Pt(6, 300-bottomHeight/2)).Activate()
	if triggered != ActionUndo {
		t.Fatalf("expected the first shortcut to undo, got %q", triggered)
	}
}

func TestWheelEventsAreIgnored(t *testing.T) {
	eng := engine.New(100, 100)
	defer eng.Close()
	ss := &session{AppState: &AppState{Engine: eng, Theme: theme.Default()}}
	for _, tool := range engine.Tools() {
		ss.chrome.tools = append(ss.chrome.tools, newToolButton(tool, theme.Default(), func() {}))
	}
	layers := eng.Layers()
	ss.chrome.drawFrame(image.NewRGBA(image.Rect(0, 0, 400, 300)), &ss.bg, paintState{
		width:     400,
		height:    300,
		theme:     theme.Default(),
		composite: image.NewRGBA(image.Rect(0, 0, 100, 100)),
		view:      newView(100, 100, 1, 1),
		layers:    layers,
		active:    layers[0].ID,
		tool:      engine.ToolPencil,
		stroke:    engine.DefaultStroke,
		activate:  func(string) {},
		trigger:   func(Action) {},
	})
	ss.view = newView(100, 100, 1, 1)

	// Over a tool button a wheel step must not change hover state.
	ss.mouse(mouse.Event{X: 5, Y: float32(tabHeight + 5), Button: mouse.ButtonWheelUp, Direction: mouse.DirStep})
	if ss.chrome.hover != nil {
		t.Fatalf("wheel event changed hover")
	}
	// Over the canvas it must not start a gesture.
	ss.mouse(mouse.Event{X: float32(toolbarWidth + 10), Y: float32(tabHeight + 10), Button: mouse.ButtonWheelDown, Direction: mouse.DirStep})
	if ss.pressed || eng.State() != engine.StateIdle {
		t.Fatalf("wheel event started a gesture")
	}
}

func TestStatusShowsUnsavedChanges(t *testing.T) {
	app := New()
	eng := engine.New(100, 100, engine.WithOnCommit(app.MarkModified))
	defer eng.Close()
	app.Engine = eng
	ss := &session{AppState: app, zoom: 1}

	if got := ss.status(); got != "pencil | Background | 100% | undo 0 redo 0" {
		t.Fatalf("unexpected status %q", got)
	}
	eng.SetTool(engine.ToolRectangle)
	eng.PointerDown(10, 10)
	eng.PointerMove(40, 40)
	eng.PointerUp()
	if got := ss.status(); !strings.HasSuffix(got, "undo 1 redo 0 | unsaved") {
		t.Fatalf("expected unsaved marker, got %q", got)
	}
}

func TestWatchFileNotifies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drawing.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fired := make(chan struct{}, 4)
	stop, err := watchFile(path, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	select {
	case <-fired:
		t.Fatalf("unrelated file triggered a reload")
	case <-time.After(3 * watchDebounce):
	}

	if err := os.WriteFile(path, []byte(`{"version":1}`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatalf("no reload after the file changed")
	}
}
