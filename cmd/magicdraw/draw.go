package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/example/magicdraw/internal/engine"
	"github.com/example/magicdraw/internal/render"
)

// drawCmd adds one shape to a drawing file by replaying a pointer gesture.
type drawCmd struct {
	file   string
	output string
	color  string
	width  float64
	layer  string
	tool   engine.Tool
	coords []float64
	*root
	fs *flag.FlagSet
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	d := &drawCmd{root: r, fs: fs}
	fs.Usage = usageFunc(d)
	fs.StringVar(&d.file, "file", "", "drawing file (created when missing)")
	fs.StringVar(&d.output, "output", "", "output file path (defaults to the input file)")
	fs.StringVar(&d.color, "color", "", "stroke colour as a CSS colour")
	fs.Float64Var(&d.width, "width", 0, "stroke width in pixels")
	fs.StringVar(&d.layer, "layer", "", "layer id or index to draw on (defaults to the active layer)")

	flagArgs, positionals, err := splitDrawArgs(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if len(positionals) < 1 {
		return nil, &UsageError{of: d}
	}
	if d.file == "" {
		return nil, errors.New("input file is required")
	}
	if d.output == "" {
		d.output = d.file
	}
	d.tool, err = engine.ParseTool(positionals[0])
	if err != nil {
		return nil, err
	}
	if d.tool == engine.ToolMove {
		return nil, errors.New("draw needs a drawing tool, not move")
	}
	d.coords, err = parseFloats(positionals[1:])
	if err != nil {
		return nil, err
	}
	switch d.tool {
	case engine.ToolPencil, engine.ToolBrush:
		if len(d.coords) < 4 || len(d.coords)%2 != 0 {
			return nil, fmt.Errorf("%s requires at least two x y points", d.tool)
		}
	default:
		if len(d.coords) != 4 {
			return nil, fmt.Errorf("%s requires x0 y0 x1 y1", d.tool)
		}
	}
	if d.color != "" {
		if _, err := render.ParseColor(d.color); err != nil {
			return nil, err
		}
	}
	if d.width < 0 {
		return nil, errors.New("width must be positive")
	}
	return d, nil
}

// splitDrawArgs separates flags from positionals so flags may follow the
// shape arguments. Negative numbers stay positional.
func splitDrawArgs(args []string) ([]string, []string, error) {
	var flags, positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || len(arg) == 1 || isNumber(arg) {
			positionals = append(positionals, arg)
			continue
		}
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		flags = append(flags, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag %s needs a value", arg)
		}
		flags = append(flags, args[i+1])
		i++
	}
	return flags, positionals, nil
}

func isNumber(s string) bool {
	_, err := parseFloats([]string{s})
	return err == nil
}

func (d *drawCmd) Run() error {
	eng, err := d.root.openDrawing(d.file, true)
	if err != nil {
		return err
	}
	defer eng.Close()
	if d.layer != "" {
		session := &interactiveCmd{r: d.root, eng: eng}
		l, err := session.resolveLayer(d.layer)
		if err != nil {
			return err
		}
		if err := eng.SetActiveLayer(l.ID); err != nil {
			return err
		}
	}
	if eng.ActiveLayer().Locked {
		return fmt.Errorf("layer %s: %w", eng.ActiveLayer().ID, engine.ErrLayerLocked)
	}
	st := eng.Stroke()
	if d.color != "" {
		st.Color = d.color
	}
	if d.width > 0 {
		st.Width = d.width
	}
	eng.SetStroke(st)
	eng.SetTool(d.tool)
	before := len(eng.ActiveLayer().Shapes)
	gesture(eng, d.coords)
	if len(eng.ActiveLayer().Shapes) == before {
		return errors.New("gesture did not produce a shape")
	}
	if err := saveDrawing(eng, d.output); err != nil {
		return err
	}
	d.root.notifySave(d.output)
	fmt.Fprintf(os.Stdout, "drew %s on %s in %s\n", d.tool, eng.ActiveLayer().ID, d.output)
	return nil
}
