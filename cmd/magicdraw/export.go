package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/example/magicdraw/internal/clipboard"
	"github.com/example/magicdraw/internal/render"
)

type exportCmd struct {
	file        string
	output      string
	layersDir   string
	title       string
	shadow      bool
	toClipboard bool
	*root
	fs *flag.FlagSet
}

func (e *exportCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	e := &exportCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "drawing file to export")
	fs.StringVar(&e.output, "o", "", "output image or PDF path")
	fs.StringVar(&e.output, "output", "", "output image or PDF path (alias)")
	fs.StringVar(&e.layersDir, "layers", "", "also write each layer as <layer id>.png into this directory")
	fs.StringVar(&e.title, "title", "", "PDF document title (defaults to the drawing title)")
	fs.BoolVar(&e.shadow, "shadow", false, "frame the composite with a drop shadow")
	fs.BoolVar(&e.toClipboard, "to-clipboard", false, "copy the composite to the clipboard")
	fs.BoolVar(&e.toClipboard, "to-clip", false, "copy the composite to the clipboard (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 && e.output == "" {
		e.output = fs.Arg(0)
	}
	if e.file == "" {
		return nil, &UsageError{of: e}
	}
	if e.output == "" && e.layersDir == "" && !e.toClipboard {
		return nil, errors.New("nothing to do: give -o, -layers or -to-clipboard")
	}
	return e, nil
}

func (e *exportCmd) Run() error {
	eng, err := e.root.openDrawing(e.file, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	var img image.Image = finalImage(eng)
	if e.shadow {
		img = render.Frame(finalImage(eng), render.DefaultShadowOptions()).Image
	}
	title := e.title
	if title == "" {
		title = eng.Title()
	}
	if e.output != "" {
		if err := writeImage(img, e.output, title, eng.Scale()); err != nil {
			return err
		}
		e.root.notifyExport(e.output, img)
		fmt.Fprintf(os.Stdout, "wrote %s\n", e.output)
	}
	if e.layersDir != "" {
		paths, err := exportLayers(eng, e.layersDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(os.Stdout, p)
		}
	}
	if e.toClipboard {
		if err := clipboard.Copy(img); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		e.root.notifyCopy(title)
	}
	return nil
}
