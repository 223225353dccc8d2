package appstate

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/magicdraw/internal/engine"
	"github.com/example/magicdraw/internal/theme"
)

const messageDuration = 2 * time.Second

// AppState is one viewer window over an engine. Engine must be set before
// Run. All engine calls happen on the window's event goroutine.
type AppState struct {
	Engine *engine.Engine
	Theme  *theme.Theme
	Keymap Keymap

	onSave   func() (string, error)
	onCopy   func(img *image.RGBA) error
	onPaste  func() ([]byte, error)
	onReload func() error
	onClose  func()
	watch    string
	logger   *slog.Logger

	updateCh  chan struct{}
	modified  bool
	sendMu    sync.Mutex
	send      func(any)
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithTheme sets the colours of the window chrome.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithOnSave registers the ctrl+s handler. It returns the saved path.
func WithOnSave(fn func() (string, error)) Option { return func(a *AppState) { a.onSave = fn } }

// WithOnCopy registers the ctrl+c handler.
func WithOnCopy(fn func(img *image.RGBA) error) Option { return func(a *AppState) { a.onCopy = fn } }

// WithOnPaste registers the source of ctrl+v images.
func WithOnPaste(fn func() ([]byte, error)) Option { return func(a *AppState) { a.onPaste = fn } }

// WithWatch reloads the drawing through fn whenever path changes on disk.
func WithWatch(path string, fn func() error) Option {
	return func(a *AppState) {
		a.watch = path
		a.onReload = fn
	}
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// WithLogger sets the logger for viewer events.
func WithLogger(l *slog.Logger) Option { return func(a *AppState) { a.logger = l } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{
		Theme:    theme.Default(),
		Keymap:   DefaultKeymap(),
		updateCh: make(chan struct{}, 1),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	return a
}

// reloadEvent is sent to the window when the watched file changes.
type reloadEvent struct{}

// NotifyImageChanged requests a repaint. It is safe to call from any
// goroutine, which makes it suitable for engine.WithOnDecoded.
func (a *AppState) NotifyImageChanged() {
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

// MarkModified flags unsaved changes in the status line. It is meant for
// engine.WithOnCommit and runs on the goroutine driving the engine.
func (a *AppState) MarkModified() { a.modified = true }

func (a *AppState) setSender(fn func(any)) {
	a.sendMu.Lock()
	a.send = fn
	a.sendMu.Unlock()
}

func (a *AppState) post(ev any) {
	a.sendMu.Lock()
	fn := a.send
	a.sendMu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		a.setSender(nil)
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// session is the per-window interaction state.
type session struct {
	*AppState
	w            screen.Window
	chrome       chrome
	bg           backdrop
	width        int
	height       int
	zoom         float64
	fit          bool
	view         view
	pressed      bool
	message      string
	messageUntil time.Time
	ignoreUntil  time.Time
	quit         bool
}

func (a *AppState) Main(s screen.Screen) {
	if a.Engine == nil {
		a.logger.Error("viewer started without a drawing")
		return
	}
	pw, ph := a.Engine.PhysicalSize()
	width := pw + toolbarWidth
	height := ph + tabHeight + bottomHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "MagicDraw"})
	if err != nil {
		a.logger.Error("new window", "err", err)
		return
	}
	defer w.Release()
	defer a.notifyClose()

	a.setSender(func(ev any) { w.Send(ev) })
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	if a.watch != "" {
		stop, err := watchFile(a.watch, func() { a.post(reloadEvent{}) })
		if err != nil {
			a.logger.Warn("watch drawing", "path", a.watch, "err", err)
		} else {
			defer stop()
		}
	}

	a.modified = false
	ss := &session{AppState: a, w: w, width: width, height: height, zoom: 1, fit: true}
	for _, t := range engine.Tools() {
		tool := t
		ss.chrome.tools = append(ss.chrome.tools, newToolButton(t, a.Theme, func() { ss.setTool(tool) }))
	}

	for !ss.quit {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			ss.width, ss.height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			ss.paint(s)
		case mouse.Event:
			ss.mouse(e)
		case key.Event:
			ss.key(e)
		case reloadEvent:
			ss.reload()
		}
	}
}

func (ss *session) redraw() { ss.w.Send(paint.Event{}) }

func (ss *session) say(format string, args ...any) {
	ss.message = fmt.Sprintf(format, args...)
	ss.messageUntil = time.Now().Add(messageDuration)
	ss.logger.Info(ss.message)
	ss.redraw()
}

func (ss *session) fail(what string, err error) {
	ss.logger.Warn(what, "err", err)
	ss.message = fmt.Sprintf("%s: %v", what, err)
	ss.messageUntil = time.Now().Add(messageDuration)
	ss.redraw()
}

func (ss *session) updateView() {
	pw, ph := ss.Engine.PhysicalSize()
	if ss.fit {
		ss.zoom = min(fitZoom(pw, ph, ss.width, ss.height), 1)
	}
	ss.view = newView(pw, ph, ss.zoom, ss.Engine.Scale())
}

func (ss *session) status() string {
	eng := ss.Engine
	l := eng.ActiveLayer()
	undo, redo := eng.HistoryDepth()
	s := fmt.Sprintf("%s | %s", eng.Tool(), l.Name)
	if l.Locked {
		s += " (locked)"
	}
	s += fmt.Sprintf(" | %.0f%% | undo %d redo %d", ss.zoom*100, undo, redo)
	if ss.modified {
		s += " | unsaved"
	}
	return s
}

func (ss *session) paint(s screen.Screen) {
	ss.updateView()
	composite := ss.Engine.Flush()
	b, err := s.NewBuffer(image.Point{ss.width, ss.height})
	if err != nil {
		ss.logger.Error("new buffer", "err", err)
		return
	}
	defer b.Release()
	var preview *image.RGBA
	if ss.Engine.State() == engine.StateDrawing {
		preview = ss.Engine.Preview()
	}
	ss.chrome.drawFrame(b.RGBA(), &ss.bg, paintState{
		width:        ss.width,
		height:       ss.height,
		theme:        ss.Theme,
		composite:    composite,
		preview:      preview,
		view:         ss.view,
		layers:       ss.Engine.Layers(),
		active:       ss.Engine.ActiveLayer().ID,
		tool:         ss.Engine.Tool(),
		stroke:       ss.Engine.Stroke(),
		status:       ss.status(),
		message:      ss.message,
		messageUntil: ss.messageUntil,
		activate:     ss.activateLayer,
		trigger:      ss.do,
	})
	ss.w.Upload(image.Point{}, b, b.Bounds())
	ss.w.Publish()
}

func (ss *session) setTool(t engine.Tool) {
	ss.Engine.SetTool(t)
	ss.redraw()
}

func (ss *session) activateLayer(id string) {
	if err := ss.Engine.SetActiveLayer(id); err != nil {
		ss.fail("activate layer", err)
		return
	}
	ss.redraw()
}

func (ss *session) mouse(e mouse.Event) {
	if ss.message != "" && time.Now().Before(ss.messageUntil) && e.Direction == mouse.DirPress {
		ss.messageUntil = time.Time{}
		ss.redraw()
	}
	if e.Button.IsWheel() {
		return
	}
	p := image.Pt(int(e.X), int(e.Y))
	if !ss.pressed {
		if b := ss.chrome.hit(p); b != nil || ss.chrome.hover != nil {
			if b != ss.chrome.hover {
				ss.chrome.hover = b
				ss.redraw()
			}
			if b != nil {
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					b.Activate()
					ss.redraw()
				}
				return
			}
		}
	}
	x, y := ss.view.toLogical(e.X, e.Y)
	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		if !ss.view.contains(e.X, e.Y) {
			return
		}
		ss.pressed = true
		ss.Engine.PointerDown(x, y)
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		if !ss.pressed {
			return
		}
		ss.pressed = false
		ss.Engine.PointerUp()
	case e.Direction == mouse.DirNone && ss.pressed:
		if !ss.view.contains(e.X, e.Y) {
			ss.pressed = false
			ss.Engine.PointerLeave()
			break
		}
		ss.Engine.PointerMove(x, y)
	default:
		return
	}
	ss.redraw()
}

func (ss *session) key(e key.Event) {
	if e.Direction != key.DirPress {
		return
	}
	a, ok := ss.Keymap.Lookup(e)
	if !ok {
		return
	}
	ss.do(a)
}

// do performs one viewer action.
func (ss *session) do(a Action) {
	eng := ss.Engine
	if t, ok := a.ToolOf(); ok {
		ss.setTool(t)
		return
	}
	switch a {
	case ActionUndo:
		if !eng.Undo() {
			ss.say("nothing to undo")
		}
	case ActionRedo:
		if !eng.Redo() {
			ss.say("nothing to redo")
		}
	case ActionNewLayer:
		l := eng.AddLayer("")
		ss.say("added %s", l.Name)
	case ActionLayerUp:
		eng.StepActiveLayer(1)
	case ActionLayerDown:
		eng.StepActiveLayer(-1)
	case ActionToggle:
		l := eng.ActiveLayer()
		eng.SetLayerVisible(l.ID, !l.Visible)
	case ActionDelete:
		eng.DeleteSelected()
	case ActionSave:
		ss.save()
	case ActionCopy:
		ss.copy()
	case ActionPaste:
		ss.paste()
	case ActionZoomIn:
		ss.fit = false
		ss.zoom = min(ss.zoom*1.25, maxZoom)
	case ActionZoomOut:
		ss.fit = false
		ss.zoom = max(ss.zoom/1.25, minZoom)
	case ActionZoomFit:
		ss.fit = true
	case ActionQuit:
		ss.quit = true
		return
	}
	ss.redraw()
}

func (ss *session) save() {
	if ss.onSave == nil {
		ss.say("saving is not available")
		return
	}
	path, err := ss.onSave()
	if err != nil {
		ss.fail("save", err)
		return
	}
	ss.ignoreUntil = time.Now().Add(time.Second)
	ss.modified = false
	ss.say("saved %s", path)
}

func (ss *session) copy() {
	if ss.onCopy == nil {
		return
	}
	ss.Engine.Flush()
	ss.Engine.WaitDecodes()
	if err := ss.onCopy(ss.Engine.Flush()); err != nil {
		ss.fail("copy", err)
		return
	}
	ss.say("drawing copied to clipboard")
}

func (ss *session) paste() {
	if ss.onPaste == nil {
		return
	}
	data, err := ss.onPaste()
	if err != nil {
		ss.fail("paste", err)
		return
	}
	if _, err := ss.Engine.AddImage(data); err != nil {
		ss.fail("paste", err)
		return
	}
	ss.say("pasted image")
}

func (ss *session) reload() {
	if ss.onReload == nil || time.Now().Before(ss.ignoreUntil) {
		return
	}
	if ss.pressed {
		ss.pressed = false
		ss.Engine.PointerLeave()
	}
	if err := ss.onReload(); err != nil {
		ss.fail("reload", err)
		return
	}
	ss.modified = false
	ss.say("reloaded %s", ss.watch)
}
