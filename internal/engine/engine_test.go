package engine

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/magicdraw/internal/codec"
	"github.com/example/magicdraw/internal/shape"
)

func gesture(e *Engine, t Tool, x0, y0, x1, y1 float64) {
	e.SetTool(t)
	e.PointerDown(x0, y0)
	e.PointerMove(x1, y1)
	e.PointerUp()
}

func layerIDs(e *Engine) []string {
	var out []string
	for _, l := range e.Layers() {
		out = append(out, l.ID)
	}
	return out
}

func pngOf(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func near(t *testing.T, want, got color.RGBA) {
	t.Helper()
	assert.InDelta(t, float64(want.R), float64(got.R), 2)
	assert.InDelta(t, float64(want.G), float64(got.G), 2)
	assert.InDelta(t, float64(want.B), float64(got.B), 2)
	assert.InDelta(t, float64(want.A), float64(got.A), 2)
}

func TestScenarioDrawCircle(t *testing.T) {
	e := New(800, 600)
	defer e.Close()
	gesture(e, ToolCircle, 100, 100, 150, 100)

	shapes := e.ActiveLayer().Shapes
	require.Len(t, shapes, 1)
	c, ok := shapes[0].(*shape.Circle)
	require.True(t, ok)
	assert.Equal(t, 100.0, c.X)
	assert.Equal(t, 100.0, c.Y)
	assert.InDelta(t, 50.0, c.Radius, 1e-9)
	assert.Equal(t, StateIdle, e.State())
}

func TestScenarioDragAndUndo(t *testing.T) {
	e := New(800, 600)
	defer e.Close()
	gesture(e, ToolCircle, 100, 100, 150, 100)
	id := e.ActiveLayer().Shapes[0].Common().ID

	e.SetTool(ToolMove)
	e.PointerDown(100, 100)
	assert.Equal(t, id, e.Selected())
	assert.Equal(t, StateDragging, e.State())
	e.PointerMove(300, 300)
	e.PointerUp()

	moved := e.ActiveLayer().Shapes[0]
	assert.Equal(t, shape.Point{X: 300, Y: 300}, moved.Origin())
	undo, _ := e.HistoryDepth()
	assert.Equal(t, 2, undo)

	require.True(t, e.Undo())
	restored := e.ActiveLayer().Shapes[0]
	assert.Equal(t, id, restored.Common().ID)
	assert.Equal(t, shape.Point{X: 100, Y: 100}, restored.Origin())
}

func TestLayerOpDuringDragKeepsHistoryOrdered(t *testing.T) {
	e := New(800, 600)
	defer e.Close()
	gesture(e, ToolCircle, 100, 100, 150, 100)

	e.SetTool(ToolMove)
	e.PointerDown(100, 100)
	e.PointerMove(300, 300)
	e.AddLayer("Notes")
	assert.Equal(t, StateIdle, e.State())
	e.PointerMove(400, 400)
	e.PointerUp()

	origin := func() shape.Point { return e.Layers()[0].Shapes[0].Origin() }
	require.Len(t, e.Layers(), 2)
	assert.Equal(t, shape.Point{X: 300, Y: 300}, origin())

	require.True(t, e.Undo())
	assert.Len(t, e.Layers(), 1)
	assert.Equal(t, shape.Point{X: 300, Y: 300}, origin())

	require.True(t, e.Undo())
	assert.Equal(t, shape.Point{X: 100, Y: 100}, origin())

	require.True(t, e.Undo())
	assert.Empty(t, e.Layers()[0].Shapes)
	assert.False(t, e.Undo())
}

func TestLayerPropertyDuringDrawingDiscardsStub(t *testing.T) {
	e := New(800, 600)
	defer e.Close()
	id := e.ActiveLayer().ID
	e.SetTool(ToolRectangle)
	e.PointerDown(10, 10)
	e.PointerMove(50, 50)
	require.True(t, e.SetLayerOpacity(id, 0.5))
	assert.Equal(t, StateIdle, e.State())
	e.PointerUp()
	assert.Empty(t, e.ActiveLayer().Shapes)

	require.True(t, e.Undo())
	assert.Equal(t, 1.0, e.ActiveLayer().Opacity)
	assert.False(t, e.CanUndo())
}

func TestScenarioReorderUndoRedo(t *testing.T) {
	e := New(800, 600)
	defer e.Close()
	l1 := e.AddLayer("L1")
	before, _ := e.HistoryDepth()
	l0 := e.Layers()[0].ID

	require.True(t, e.ReorderLayer(0, 1))
	assert.Equal(t, []string{l1.ID, l0}, layerIDs(e))
	after, _ := e.HistoryDepth()
	assert.Equal(t, before+1, after)

	require.True(t, e.Undo())
	assert.Equal(t, []string{l0, l1.ID}, layerIDs(e))
	require.True(t, e.Redo())
	assert.Equal(t, []string{l1.ID, l0}, layerIDs(e))
}

func TestDrawingUsesDeviceScale(t *testing.T) {
	e := New(100, 100, WithScale(2))
	defer e.Close()
	w, h := e.PhysicalSize()
	assert.Equal(t, []int{200, 200}, []int{w, h})
	gesture(e, ToolCircle, 10, 10, 15, 10)
	c := e.ActiveLayer().Shapes[0].(*shape.Circle)
	assert.Equal(t, 20.0, c.X)
	assert.InDelta(t, 10.0, c.Radius, 1e-9)
}

func TestShapeToolsDeriveGeometry(t *testing.T) {
	e := New(200, 200)
	defer e.Close()
	gesture(e, ToolRectangle, 10, 20, 40, 60)
	gesture(e, ToolTriangle, 100, 100, 120, 140)
	gesture(e, ToolPencil, 5, 5, 9, 8)

	shapes := e.ActiveLayer().Shapes
	require.Len(t, shapes, 3)
	r := shapes[0].(*shape.Rectangle)
	assert.Equal(t, 30.0, r.Width)
	assert.Equal(t, 40.0, r.Height)
	tri := shapes[1].(*shape.Triangle)
	assert.Equal(t, shape.Point{X: -20, Y: 40}, tri.P2)
	assert.Equal(t, shape.Point{X: 20, Y: 40}, tri.P3)
	p := shapes[2].(*shape.Path)
	assert.Equal(t, []shape.Point{{X: 5, Y: 5}, {X: 9, Y: 8}}, p.Points)
	assert.Equal(t, DefaultStroke.Color, p.StrokeColor)
}

func TestEraserClearsOnlyItsLayer(t *testing.T) {
	e := New(100, 100)
	defer e.Close()
	gesture(e, ToolPencil, 10, 50, 90, 50)
	bottom := e.ActiveLayer().ID
	e.AddLayer("top")
	gesture(e, ToolPencil, 50, 10, 50, 90)
	gesture(e, ToolEraser, 40, 50, 60, 50)

	e.Flush()
	top := e.Surface(e.ActiveLayer().ID)
	assert.Zero(t, top.RGBAAt(50, 50).A)
	assert.NotZero(t, top.RGBAAt(50, 20).A)
	assert.NotZero(t, e.Surface(bottom).RGBAAt(50, 50).A)
	assert.NotZero(t, e.Composite().RGBAAt(50, 50).A)
}

func TestLockedLayerIgnoresGestures(t *testing.T) {
	e := New(200, 200)
	defer e.Close()
	gesture(e, ToolRectangle, 10, 10, 50, 50)
	id := e.ActiveLayer().ID
	require.True(t, e.SetLayerLocked(id, true))

	gesture(e, ToolCircle, 100, 100, 120, 100)
	assert.Len(t, e.ActiveLayer().Shapes, 1)

	e.SetTool(ToolMove)
	e.PointerDown(20, 20)
	assert.Equal(t, StateIdle, e.State())
	e.PointerMove(150, 150)
	e.PointerUp()
	assert.Equal(t, shape.Point{X: 10, Y: 10}, e.ActiveLayer().Shapes[0].Origin())

	_, err := e.AddImage(pngOf(t, 4, 4, color.RGBA{A: 255}))
	assert.True(t, errors.Is(err, ErrLayerLocked))

	require.True(t, e.SetLayerLocked(id, false))
	e.PointerDown(20, 20)
	e.PointerMove(150, 150)
	e.PointerUp()
	assert.Equal(t, shape.Point{X: 140, Y: 140}, e.ActiveLayer().Shapes[0].Origin())
	gesture(e, ToolCircle, 100, 100, 120, 100)
	assert.Len(t, e.ActiveLayer().Shapes, 2)
}

func TestUndoRedoRoundTripAndCap(t *testing.T) {
	e := New(400, 400)
	defer e.Close()
	for i := range 20 {
		x := float64(i * 10)
		gesture(e, ToolRectangle, x, x, x+5, x+5)
	}
	want := e.ActiveLayer().Clone()
	for range 20 {
		require.True(t, e.Undo())
	}
	assert.False(t, e.Undo())
	assert.Empty(t, e.ActiveLayer().Shapes)
	for range 20 {
		require.True(t, e.Redo())
	}
	assert.False(t, e.Redo())
	assert.Equal(t, want, e.ActiveLayer())

	gesture(e, ToolRectangle, 0, 0, 1, 1)
	undo, redo := e.HistoryDepth()
	assert.Equal(t, 20, undo)
	assert.Zero(t, redo)
	for range 20 {
		require.True(t, e.Undo())
	}
	assert.Len(t, e.ActiveLayer().Shapes, 1, "oldest entry was evicted")
}

func TestDeleteSoleLayerIsRejected(t *testing.T) {
	e := New(10, 10)
	defer e.Close()
	assert.False(t, e.DeleteLayer(e.ActiveLayer().ID))
	assert.Len(t, e.Layers(), 1)
	assert.False(t, e.CanUndo())
}

func TestPointerLeaveCommits(t *testing.T) {
	commits := 0
	e := New(200, 200, WithOnCommit(func() { commits++ }))
	defer e.Close()
	e.SetTool(ToolRectangle)
	e.PointerDown(10, 10)
	e.PointerMove(30, 30)
	e.PointerLeave()
	assert.Len(t, e.ActiveLayer().Shapes, 1)
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, 1, commits)

	e.SetTool(ToolMove)
	e.PointerDown(15, 15)
	e.PointerMove(50, 50)
	e.PointerLeave()
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, 2, commits)
	assert.Equal(t, shape.Point{X: 45, Y: 45}, e.ActiveLayer().Shapes[0].Origin())
}

func TestClickWithoutDragRecordsNothing(t *testing.T) {
	e := New(200, 200)
	defer e.Close()
	gesture(e, ToolRectangle, 10, 10, 30, 30)
	e.SetTool(ToolMove)
	e.PointerDown(20, 20)
	e.PointerUp()
	undo, _ := e.HistoryDepth()
	assert.Equal(t, 1, undo)
	assert.NotEmpty(t, e.Selected())
}

func TestHitTestPrefersTopmostShape(t *testing.T) {
	e := New(200, 200)
	defer e.Close()
	gesture(e, ToolRectangle, 10, 10, 100, 100)
	gesture(e, ToolCircle, 50, 50, 60, 50)
	top := e.ActiveLayer().Shapes[1].Common().ID
	e.SetTool(ToolMove)
	e.PointerDown(50, 50)
	e.PointerUp()
	assert.Equal(t, top, e.Selected())

	e.PointerDown(190, 190)
	assert.Empty(t, e.Selected())
	assert.Equal(t, StateIdle, e.State())
}

func TestLeavingMoveToolClearsSelection(t *testing.T) {
	e := New(200, 200)
	defer e.Close()
	gesture(e, ToolRectangle, 10, 10, 30, 30)
	e.SetTool(ToolMove)
	e.PointerDown(20, 20)
	e.PointerUp()
	require.NotEmpty(t, e.Selected())
	e.SetTool(ToolPencil)
	assert.Empty(t, e.Selected())
	assert.True(t, e.Dirty())
}

func TestToolChangeDiscardsStub(t *testing.T) {
	e := New(200, 200)
	defer e.Close()
	e.SetTool(ToolRectangle)
	e.PointerDown(10, 10)
	e.PointerMove(40, 40)
	assert.NotZero(t, e.Preview().RGBAAt(10, 25).A)
	e.SetTool(ToolCircle)
	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.ActiveLayer().Shapes)
	assert.Zero(t, e.Preview().RGBAAt(10, 25).A)
}

func TestDeleteSelectedShape(t *testing.T) {
	e := New(200, 200)
	defer e.Close()
	gesture(e, ToolRectangle, 10, 10, 30, 30)
	e.SetTool(ToolMove)
	e.PointerDown(20, 20)
	e.PointerUp()
	require.True(t, e.DeleteSelected())
	assert.Empty(t, e.ActiveLayer().Shapes)
	assert.Empty(t, e.Selected())
	require.True(t, e.Undo())
	assert.Len(t, e.ActiveLayer().Shapes, 1)
}

func TestLayerPropertiesAreUndoable(t *testing.T) {
	e := New(10, 10)
	defer e.Close()
	id := e.ActiveLayer().ID
	assert.False(t, e.SetLayerOpacity(id, 2), "already at the clamp")
	require.True(t, e.SetLayerOpacity(id, 0.25))
	require.True(t, e.SetLayerBlend(id, "multiply"))
	require.True(t, e.SetLayerVisible(id, false))
	require.True(t, e.RenameLayer(id, "paper"))
	require.True(t, e.SetLayerFilter(id, "blur(2px)"))

	l := e.Layer(id)
	assert.Equal(t, 0.25, l.Opacity)
	assert.EqualValues(t, "multiply", l.Blend)
	assert.False(t, l.Visible)
	assert.Equal(t, "paper", l.Name)

	for e.Undo() {
	}
	l = e.Layer(id)
	assert.Equal(t, 1.0, l.Opacity)
	assert.EqualValues(t, "normal", l.Blend)
	assert.True(t, l.Visible)
	assert.Empty(t, l.Filter)
}

func TestSetActiveLayerUnknown(t *testing.T) {
	e := New(10, 10)
	defer e.Close()
	err := e.SetActiveLayer("nope")
	assert.True(t, errors.Is(err, ErrLayerNotFound))
	top := e.AddLayer("")
	assert.Equal(t, e.Layers()[0].ID, e.StepActiveLayer(-1).ID)
	assert.Equal(t, top.ID, e.StepActiveLayer(5).ID)
}

func TestAddImageFitsAndCentres(t *testing.T) {
	e := New(100, 100)
	defer e.Close()
	im, err := e.AddImage(pngOf(t, 200, 100, color.RGBA{R: 255, A: 255}))
	require.NoError(t, err)
	assert.InDelta(t, 80.0, im.Width, 1e-9)
	assert.InDelta(t, 40.0, im.Height, 1e-9)
	assert.InDelta(t, 10.0, im.X, 1e-9)
	assert.InDelta(t, 30.0, im.Y, 1e-9)

	small, err := e.AddImage(pngOf(t, 10, 20, color.RGBA{G: 255, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, 10.0, small.Width)
	assert.Equal(t, 45.0, small.X)

	e.Flush()
	near(t, color.RGBA{G: 255, A: 255}, e.Composite().RGBAAt(50, 50))
	near(t, color.RGBA{R: 255, A: 255}, e.Composite().RGBAAt(20, 50))
}

func TestAddImageRejectsGarbage(t *testing.T) {
	e := New(10, 10)
	defer e.Close()
	_, err := e.AddImage([]byte("not an image"))
	assert.Error(t, err)
	assert.Empty(t, e.ActiveLayer().Shapes)
	assert.False(t, e.CanUndo())
}

func TestExportImportState(t *testing.T) {
	src := New(50, 50)
	defer src.Close()
	gesture(src, ToolRectangle, 10, 10, 40, 40)
	blobs, err := src.ExportState()
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, src.ActiveLayer().ID, blobs[0].LayerID)

	dst := New(50, 50)
	defer dst.Close()
	require.NoError(t, dst.ImportState(append(blobs, LayerBlob{LayerID: "missing", Blob: blobs[0].Blob})))
	l := dst.ActiveLayer()
	require.Len(t, l.Shapes, 1)
	assert.Equal(t, shape.KindImage, l.Shapes[0].Kind())
	assert.NotEmpty(t, l.Content)

	dst.Flush()
	near(t, src.Flush().RGBAAt(10, 25), dst.Composite().RGBAAt(10, 25))
	near(t, color.RGBA{}, dst.Composite().RGBAAt(25, 25))

	require.True(t, dst.Undo())
	assert.Empty(t, dst.ActiveLayer().Shapes)
	require.True(t, dst.Redo())
	assert.Len(t, dst.ActiveLayer().Shapes, 1)
}

func TestImportUnknownLayersOnly(t *testing.T) {
	e := New(10, 10)
	defer e.Close()
	require.NoError(t, e.ImportState([]LayerBlob{{LayerID: "ghost", Blob: []byte("x")}}))
	assert.False(t, e.CanUndo())
}

func TestSetLayerImageErrors(t *testing.T) {
	e := New(10, 10)
	defer e.Close()
	err := e.SetLayerImage("ghost", pngOf(t, 1, 1, color.RGBA{A: 255}))
	assert.True(t, errors.Is(err, ErrLayerNotFound))
	err = e.SetLayerImage(e.ActiveLayer().ID, []byte("garbage"))
	assert.Error(t, err)
	assert.False(t, e.CanUndo())

	url := codec.DataURL(pngOf(t, 2, 2, color.RGBA{B: 255, A: 255}))
	require.NoError(t, e.SetLayerImage(e.ActiveLayer().ID, []byte(url)))
	e.Flush()
	near(t, color.RGBA{B: 255, A: 255}, e.Composite().RGBAAt(5, 5))
}

func TestResizeReappliesSnapshot(t *testing.T) {
	e := New(40, 40)
	defer e.Close()
	gesture(e, ToolRectangle, 5, 5, 30, 30)
	e.Flush()
	e.Snapshot()
	e.Resize(60, 30)
	w, h := e.PhysicalSize()
	assert.Equal(t, 60, w)
	assert.Equal(t, 30, h)
	assert.NotZero(t, e.Surface(e.ActiveLayer().ID).RGBAAt(5, 15).A)
	assert.True(t, e.Dirty())
	assert.Equal(t, image.Rect(0, 0, 60, 30), e.Flush().Bounds())
}

func TestFileRoundTrip(t *testing.T) {
	e := New(60, 40, WithScale(1.5))
	defer e.Close()
	e.SetTitle("sketch")
	gesture(e, ToolCircle, 20, 20, 30, 20)
	top := e.AddLayer("paint")
	require.NoError(t, e.SetLayerImage(top.ID, pngOf(t, 3, 3, color.RGBA{R: 255, A: 255})))
	require.True(t, e.SetLayerBlend(top.ID, "screen"))

	f, err := e.File("")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	read, err := codec.Read(&buf)
	require.NoError(t, err)

	commits := 0
	got := New(10, 10, WithOnCommit(func() { commits++ }))
	defer got.Close()
	require.NoError(t, got.Load(read))
	assert.Equal(t, "sketch", got.Title())
	assert.Equal(t, 1.5, got.Scale())
	w, h := got.Size()
	assert.Equal(t, []int{60, 40}, []int{w, h})
	assert.Equal(t, layerIDs(e), layerIDs(got))
	assert.Equal(t, top.ID, got.ActiveLayer().ID)
	assert.False(t, got.CanUndo())
	assert.Equal(t, 1, commits)

	bottom := got.Layers()[0]
	require.Len(t, bottom.Shapes, 1)
	assert.Equal(t, shape.KindCircle, bottom.Shapes[0].Kind())
	assert.Empty(t, bottom.Content)
	assert.EqualValues(t, "screen", got.Layers()[1].Blend)

	want := e.Flush()
	got.Flush()
	got.WaitDecodes()
	have := got.Flush()
	assert.Equal(t, want.Bounds(), have.Bounds())
	assert.Equal(t, want.RGBAAt(45, 30), have.RGBAAt(45, 30))
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	e := New(10, 10)
	defer e.Close()
	gesture(e, ToolRectangle, 1, 1, 5, 5)
	err := e.Load(&codec.File{Width: 10, Height: 10})
	assert.Error(t, err)
	assert.Len(t, e.ActiveLayer().Shapes, 1)
}
