package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/example/magicdraw/internal/clipboard"
	"github.com/example/magicdraw/internal/engine"
	"github.com/example/magicdraw/internal/layer"
	"github.com/example/magicdraw/internal/render"
)

// interactiveCmd hosts one drawing and runs script commands against it. The
// REPL, -e flags and background sessions all share it.
type interactiveCmd struct {
	r        *root
	eng      *engine.Engine
	path     string
	modified bool
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newInteractiveCmd(r *root) *interactiveCmd {
	w, h := r.canvasSize()
	i := &interactiveCmd{
		r:      r,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	i.eng = engine.New(w, h, i.engineOptions()...)
	return i
}

// engineOptions adds change tracking to the configured engine options.
func (i *interactiveCmd) engineOptions() []engine.Option {
	return i.r.engineOptions(engine.WithOnCommit(func() { i.modified = true }))
}

// open replaces the session drawing with the one at path.
func (i *interactiveCmd) open(path string, create bool) error {
	eng, err := i.r.openDrawing(path, create, i.engineOptions()...)
	if err != nil {
		return err
	}
	i.replace(eng)
	i.path = path
	return nil
}

// withIO swaps the session streams for the duration of one command. Nil
// arguments leave the current stream in place.
func (i *interactiveCmd) withIO(in io.Reader, out, errW io.Writer) func() {
	prevIn, prevOut, prevErr := i.stdin, i.stdout, i.stderr
	if in != nil {
		i.stdin = in
	}
	if out != nil {
		i.stdout = out
	}
	if errW != nil {
		i.stderr = errW
	}
	return func() {
		i.stdin, i.stdout, i.stderr = prevIn, prevOut, prevErr
	}
}

func (i *interactiveCmd) Run() error {
	fmt.Fprintln(i.stdout, "Enter commands (type 'help' for a list, 'exit' to quit)")
	scanner := bufio.NewScanner(i.stdin)
	for {
		fmt.Fprint(i.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := i.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(i.stderr, err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

type sessionCommand struct {
	usage string
	run   func(i *interactiveCmd, args []string) error
}

var (
	sessionCommands map[string]sessionCommand
	errExit         = errors.New("exit")
)

func init() {
	sessionCommands = map[string]sessionCommand{
		"tool":   {"tool <name>", (*interactiveCmd).cmdTool},
		"color":  {"color <css colour>", (*interactiveCmd).cmdColor},
		"width":  {"width <px>", (*interactiveCmd).cmdWidth},
		"down":   {"down <x> <y>", (*interactiveCmd).cmdDown},
		"move":   {"move <x> <y>", (*interactiveCmd).cmdMove},
		"up":     {"up", func(i *interactiveCmd, _ []string) error { i.eng.PointerUp(); return nil }},
		"leave":  {"leave", func(i *interactiveCmd, _ []string) error { i.eng.PointerLeave(); return nil }},
		"drag":   {"drag <x0> <y0> <x1> <y1> [x y ...]", (*interactiveCmd).cmdDrag},
		"undo":   {"undo", (*interactiveCmd).cmdUndo},
		"redo":   {"redo", (*interactiveCmd).cmdRedo},
		"layer":  {"layer <add|delete|rename|reorder|show|hide|lock|unlock|opacity|blend|filter|active|list> ...", (*interactiveCmd).cmdLayer},
		"shape":  {"shape <list|delete> [id]", (*interactiveCmd).cmdShape},
		"image":  {"image <file>", (*interactiveCmd).cmdImage},
		"import": {"import <dir>", (*interactiveCmd).cmdImport},
		"export": {"export <dir>", (*interactiveCmd).cmdExport},
		"png":    {"png <file>", func(i *interactiveCmd, a []string) error { return i.writeComposite("png", a) }},
		"pdf":    {"pdf <file>", func(i *interactiveCmd, a []string) error { return i.writeComposite("pdf", a) }},
		"save":   {"save [file]", (*interactiveCmd).cmdSave},
		"open":   {"open <file>", (*interactiveCmd).cmdOpen},
		"new":    {"new [w h]", (*interactiveCmd).cmdNew},
		"title":  {"title <text>", (*interactiveCmd).cmdTitle},
		"resize": {"resize <w> <h>", (*interactiveCmd).cmdResize},
		"copy":   {"copy", (*interactiveCmd).cmdCopy},
		"paste":  {"paste", (*interactiveCmd).cmdPaste},
		"info":   {"info", (*interactiveCmd).cmdInfo},
		"help":   {"help", (*interactiveCmd).cmdHelp},
		"exit":   {"exit", func(*interactiveCmd, []string) error { return errExit }},
	}
}

// executeLine runs one command. done reports that the session should end.
func (i *interactiveCmd) executeLine(line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}
	args, err := shellwords.Parse(line)
	if err != nil {
		return false, fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return false, nil
	}
	name := strings.ToLower(args[0])
	if name == "quit" {
		name = "exit"
	}
	cmd, ok := sessionCommands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q (try help)", args[0])
	}
	err = cmd.run(i, args[1:])
	if errors.Is(err, errExit) {
		return true, nil
	}
	return false, err
}

func usageErr(name string) error {
	return fmt.Errorf("usage: %s", sessionCommands[name].usage)
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for n, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[n] = v
	}
	return out, nil
}

func (i *interactiveCmd) cmdTool(args []string) error {
	if len(args) != 1 {
		return usageErr("tool")
	}
	t, err := engine.ParseTool(args[0])
	if err != nil {
		return err
	}
	i.eng.SetTool(t)
	fmt.Fprintf(i.stdout, "tool %s\n", t)
	return nil
}

func (i *interactiveCmd) cmdColor(args []string) error {
	if len(args) != 1 {
		return usageErr("color")
	}
	if _, err := render.ParseColor(args[0]); err != nil {
		return err
	}
	st := i.eng.Stroke()
	st.Color = args[0]
	i.eng.SetStroke(st)
	return nil
}

func (i *interactiveCmd) cmdWidth(args []string) error {
	if len(args) != 1 {
		return usageErr("width")
	}
	v, err := parseFloats(args)
	if err != nil {
		return err
	}
	if v[0] <= 0 {
		return fmt.Errorf("width must be positive")
	}
	st := i.eng.Stroke()
	st.Width = v[0]
	i.eng.SetStroke(st)
	return nil
}

func (i *interactiveCmd) cmdDown(args []string) error {
	p, err := parseFloats(args)
	if err != nil || len(p) != 2 {
		return usageErr("down")
	}
	i.eng.PointerDown(p[0], p[1])
	return nil
}

func (i *interactiveCmd) cmdMove(args []string) error {
	p, err := parseFloats(args)
	if err != nil || len(p) != 2 {
		return usageErr("move")
	}
	i.eng.PointerMove(p[0], p[1])
	return nil
}

func (i *interactiveCmd) cmdDrag(args []string) error {
	p, err := parseFloats(args)
	if err != nil {
		return err
	}
	if len(p) < 4 || len(p)%2 != 0 {
		return usageErr("drag")
	}
	gesture(i.eng, p)
	return nil
}

// gesture presses at the first point, moves through the rest and releases.
func gesture(eng *engine.Engine, coords []float64) {
	eng.PointerDown(coords[0], coords[1])
	for n := 2; n+1 < len(coords); n += 2 {
		eng.PointerMove(coords[n], coords[n+1])
	}
	eng.PointerUp()
}

func (i *interactiveCmd) cmdUndo([]string) error {
	if !i.eng.Undo() {
		fmt.Fprintln(i.stdout, "nothing to undo")
	}
	return nil
}

func (i *interactiveCmd) cmdRedo([]string) error {
	if !i.eng.Redo() {
		fmt.Fprintln(i.stdout, "nothing to redo")
	}
	return nil
}

// resolveLayer accepts a layer id or its index counted from the bottom.
// An empty argument means the active layer.
func (i *interactiveCmd) resolveLayer(arg string) (*layer.Layer, error) {
	if arg == "" {
		return i.eng.ActiveLayer(), nil
	}
	if l := i.eng.Layer(arg); l != nil {
		return l, nil
	}
	if n, err := strconv.Atoi(arg); err == nil {
		layers := i.eng.Layers()
		if n >= 0 && n < len(layers) {
			return layers[n], nil
		}
	}
	return nil, fmt.Errorf("%q: %w", arg, engine.ErrLayerNotFound)
}

func argAt(args []string, n int) string {
	if n < len(args) {
		return args[n]
	}
	return ""
}

func (i *interactiveCmd) cmdLayer(args []string) error {
	if len(args) == 0 {
		return usageErr("layer")
	}
	op, rest := strings.ToLower(args[0]), args[1:]
	switch op {
	case "list", "ls":
		i.listLayers()
		return nil
	case "add", "new":
		l := i.eng.AddLayer(strings.Join(rest, " "))
		fmt.Fprintf(i.stdout, "added %s %q\n", l.ID, l.Name)
		return nil
	case "reorder":
		idx, err := parseFloats(rest)
		if err != nil || len(idx) != 2 {
			return fmt.Errorf("usage: layer reorder <from> <to>")
		}
		if !i.eng.ReorderLayer(int(idx[0]), int(idx[1])) {
			return fmt.Errorf("cannot move layer %d to %d", int(idx[0]), int(idx[1]))
		}
		return nil
	case "up", "down":
		l, err := i.resolveLayer(argAt(rest, 0))
		if err != nil {
			return err
		}
		delta := 1
		if op == "down" {
			delta = -1
		}
		i.eng.MoveLayer(l.ID, delta)
		return nil
	case "active":
		switch strings.ToLower(argAt(rest, 0)) {
		case "":
			fmt.Fprintln(i.stdout, i.eng.ActiveLayer().ID)
			return nil
		case "next", "above":
			i.eng.StepActiveLayer(1)
			return nil
		case "prev", "below":
			i.eng.StepActiveLayer(-1)
			return nil
		}
	}

	l, err := i.resolveLayer(argAt(rest, 0))
	if err != nil {
		return err
	}
	value := strings.Join(rest[min(1, len(rest)):], " ")
	switch op {
	case "active":
		return i.eng.SetActiveLayer(l.ID)
	case "delete", "rm":
		if !i.eng.DeleteLayer(l.ID) {
			return fmt.Errorf("cannot delete the last layer")
		}
	case "rename":
		if value == "" {
			return fmt.Errorf("usage: layer rename <id> <name>")
		}
		i.eng.RenameLayer(l.ID, value)
	case "show", "hide":
		i.eng.SetLayerVisible(l.ID, op == "show")
	case "lock", "unlock":
		i.eng.SetLayerLocked(l.ID, op == "lock")
	case "opacity":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("usage: layer opacity <id> <0-1>")
		}
		i.eng.SetLayerOpacity(l.ID, v)
	case "blend":
		if value == "" {
			return fmt.Errorf("usage: layer blend <id> <mode>")
		}
		if mode := layer.ParseBlend(value); string(mode) != strings.ToLower(value) {
			return fmt.Errorf("unknown blend mode %q", value)
		}
		i.eng.SetLayerBlend(l.ID, value)
	case "filter":
		if value != "" {
			if _, err := render.ParseFilter(value); err != nil {
				return err
			}
		}
		i.eng.SetLayerFilter(l.ID, value)
	default:
		return usageErr("layer")
	}
	return nil
}

func (i *interactiveCmd) listLayers() {
	layers := i.eng.Layers()
	active := i.eng.ActiveLayer().ID
	for n := len(layers) - 1; n >= 0; n-- {
		l := layers[n]
		marker := " "
		if l.ID == active {
			marker = "*"
		}
		var flags []string
		if !l.Visible {
			flags = append(flags, "hidden")
		}
		if l.Locked {
			flags = append(flags, "locked")
		}
		if l.Blend != "" && l.Blend != layer.BlendNormal {
			flags = append(flags, string(l.Blend))
		}
		if l.Filter != "" {
			flags = append(flags, "filter="+l.Filter)
		}
		fmt.Fprintf(i.stdout, "%s %2d %-20s %-16q opacity=%.2f shapes=%d %s\n",
			marker, n, l.ID, l.Name, l.Opacity, len(l.Shapes), strings.Join(flags, " "))
	}
}

func (i *interactiveCmd) cmdShape(args []string) error {
	switch strings.ToLower(argAt(args, 0)) {
	case "list", "ls":
		l, err := i.resolveLayer(argAt(args, 1))
		if err != nil {
			return err
		}
		for _, s := range l.Shapes {
			b := s.Common()
			marker := " "
			if b.ID == i.eng.Selected() {
				marker = "*"
			}
			fmt.Fprintf(i.stdout, "%s %s %-9s %.1f,%.1f %s\n", marker, b.ID, s.Kind(), b.X, b.Y, b.StrokeColor)
		}
		return nil
	case "delete", "rm":
		id := argAt(args, 1)
		if id == "" {
			if !i.eng.DeleteSelected() {
				return fmt.Errorf("no shape selected")
			}
			return nil
		}
		if !i.eng.DeleteShape(id) {
			return fmt.Errorf("shape %q not found or its layer is locked", id)
		}
		return nil
	}
	return usageErr("shape")
}

func (i *interactiveCmd) cmdImage(args []string) error {
	if len(args) != 1 {
		return usageErr("image")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	im, err := i.eng.AddImage(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(i.stdout, "image %s %.0fx%.0f at %.0f,%.0f\n", im.ID, im.Width, im.Height, im.X, im.Y)
	return nil
}

func (i *interactiveCmd) cmdImport(args []string) error {
	if len(args) != 1 {
		return usageErr("import")
	}
	n, err := importLayers(i.eng, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(i.stdout, "imported %d layer(s)\n", n)
	return nil
}

func (i *interactiveCmd) cmdExport(args []string) error {
	if len(args) != 1 {
		return usageErr("export")
	}
	paths, err := exportLayers(i.eng, args[0])
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(i.stdout, p)
	}
	return nil
}

func (i *interactiveCmd) writeComposite(kind string, args []string) error {
	if len(args) != 1 {
		return usageErr(kind)
	}
	path := args[0]
	if filepath.Ext(path) == "" {
		path += "." + kind
	}
	if kind == "pdf" && !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("pdf output must end in .pdf")
	}
	img := finalImage(i.eng)
	if err := writeImage(img, path, i.eng.Title(), i.eng.Scale()); err != nil {
		return err
	}
	i.r.notifyExport(path, img)
	fmt.Fprintf(i.stdout, "wrote %s\n", path)
	return nil
}

func (i *interactiveCmd) cmdSave(args []string) error {
	path := i.path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no file to save to; use save <file>")
	}
	if err := saveDrawing(i.eng, path); err != nil {
		return err
	}
	i.path = path
	i.modified = false
	i.r.notifySave(path)
	fmt.Fprintf(i.stdout, "saved %s\n", path)
	return nil
}

func (i *interactiveCmd) cmdOpen(args []string) error {
	if len(args) != 1 {
		return usageErr("open")
	}
	return i.open(args[0], false)
}

func (i *interactiveCmd) cmdNew(args []string) error {
	w, h := i.r.canvasSize()
	if len(args) > 0 {
		v, err := parseFloats(args)
		if err != nil || len(v) != 2 || v[0] < 1 || v[1] < 1 {
			return usageErr("new")
		}
		w, h = int(v[0]), int(v[1])
	}
	i.replace(engine.New(w, h, i.engineOptions()...))
	i.path = ""
	return nil
}

func (i *interactiveCmd) replace(eng *engine.Engine) {
	if i.eng != nil {
		if err := i.eng.Close(); err != nil {
			i.r.log().Debug("close drawing", "err", err)
		}
	}
	i.eng = eng
	i.modified = false
}

func (i *interactiveCmd) cmdTitle(args []string) error {
	i.eng.SetTitle(strings.Join(args, " "))
	return nil
}

func (i *interactiveCmd) cmdResize(args []string) error {
	v, err := parseFloats(args)
	if err != nil || len(v) != 2 || v[0] < 1 || v[1] < 1 {
		return usageErr("resize")
	}
	i.eng.Snapshot()
	i.eng.Resize(int(v[0]), int(v[1]))
	return nil
}

func (i *interactiveCmd) cmdCopy([]string) error {
	if err := clipboard.Copy(finalImage(i.eng)); err != nil {
		return err
	}
	i.r.notifyCopy(i.eng.Title())
	fmt.Fprintln(i.stdout, "copied drawing to clipboard")
	return nil
}

func (i *interactiveCmd) cmdPaste([]string) error {
	data, err := clipboard.Paste()
	if err != nil {
		return err
	}
	im, err := i.eng.AddImage(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(i.stdout, "pasted image %s\n", im.ID)
	return nil
}

func (i *interactiveCmd) cmdInfo([]string) error {
	w, h := i.eng.Size()
	pw, ph := i.eng.PhysicalSize()
	undo, redo := i.eng.HistoryDepth()
	st := i.eng.Stroke()
	title := i.eng.Title()
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(i.stdout, "title: %s\n", title)
	if i.path != "" {
		fmt.Fprintf(i.stdout, "file: %s\n", i.path)
	}
	fmt.Fprintf(i.stdout, "size: %dx%d (%dx%d at %gx)\n", w, h, pw, ph, i.eng.Scale())
	fmt.Fprintf(i.stdout, "tool: %s (%s)\n", i.eng.Tool(), i.eng.State())
	fmt.Fprintf(i.stdout, "stroke: %s %gpx\n", st.Color, st.Width)
	fmt.Fprintf(i.stdout, "layers: %d, active %s\n", len(i.eng.Layers()), i.eng.ActiveLayer().ID)
	fmt.Fprintf(i.stdout, "history: %d undo, %d redo\n", undo, redo)
	if i.modified {
		fmt.Fprintln(i.stdout, "unsaved changes")
	}
	return nil
}

func (i *interactiveCmd) cmdHelp([]string) error {
	names := make([]string, 0, len(sessionCommands))
	for name := range sessionCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(i.stdout, "  %s\n", sessionCommands[name].usage)
	}
	return nil
}
