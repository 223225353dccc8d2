package main

import (
	"flag"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/magicdraw/internal/engine"
)

type inspectCmd struct {
	file string
	*root
	fs *flag.FlagSet
}

func (i *inspectCmd) FlagSet() *flag.FlagSet {
	return i.fs
}

func parseInspectCmd(args []string, r *root) (*inspectCmd, error) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	i := &inspectCmd{root: r, fs: fs}
	fs.Usage = usageFunc(i)
	fs.StringVar(&i.file, "file", "", "drawing file to describe")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if i.file == "" && fs.NArg() == 1 {
		i.file = fs.Arg(0)
	}
	if i.file == "" {
		return nil, &UsageError{of: i}
	}
	return i, nil
}

type outline struct {
	Title  string         `yaml:"title,omitempty"`
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Scale  float64        `yaml:"scale"`
	Active string         `yaml:"active"`
	Layers []layerOutline `yaml:"layers"`
}

type layerOutline struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Visible bool           `yaml:"visible"`
	Locked  bool           `yaml:"locked,omitempty"`
	Opacity float64        `yaml:"opacity"`
	Blend   string         `yaml:"blend,omitempty"`
	Filter  string         `yaml:"filter,omitempty"`
	Shapes  []shapeOutline `yaml:"shapes,omitempty"`
}

type shapeOutline struct {
	ID     string     `yaml:"id"`
	Kind   string     `yaml:"kind"`
	Bounds [4]float64 `yaml:"box,flow"`
	Stroke string     `yaml:"stroke,omitempty"`
}

func outlineOf(eng *engine.Engine) outline {
	w, h := eng.Size()
	o := outline{
		Title:  eng.Title(),
		Width:  w,
		Height: h,
		Scale:  eng.Scale(),
		Active: eng.ActiveLayer().ID,
	}
	for _, l := range eng.Layers() {
		lo := layerOutline{
			ID:      l.ID,
			Name:    l.Name,
			Visible: l.Visible,
			Locked:  l.Locked,
			Opacity: l.Opacity,
			Blend:   string(l.Blend),
			Filter:  l.Filter,
		}
		for _, s := range l.Shapes {
			bb := s.BoundingBox().Canon()
			lo.Shapes = append(lo.Shapes, shapeOutline{
				ID:     s.Common().ID,
				Kind:   string(s.Kind()),
				Bounds: [4]float64{bb.X, bb.Y, bb.W, bb.H},
				Stroke: s.Common().StrokeColor,
			})
		}
		o.Layers = append(o.Layers, lo)
	}
	return o
}

func writeOutline(w io.Writer, eng *engine.Engine) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(outlineOf(eng)); err != nil {
		return err
	}
	return enc.Close()
}

func (i *inspectCmd) Run() error {
	eng, err := i.root.openDrawing(i.file, false)
	if err != nil {
		return err
	}
	defer eng.Close()
	return writeOutline(os.Stdout, eng)
}
