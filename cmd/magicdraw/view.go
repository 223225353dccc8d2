package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/example/magicdraw/internal/appstate"
	"github.com/example/magicdraw/internal/clipboard"
	"github.com/example/magicdraw/internal/codec"
	"github.com/example/magicdraw/internal/engine"
)

type viewCmd struct {
	file  string
	watch bool
	title string
	*root
	fs *flag.FlagSet
}

func (v *viewCmd) FlagSet() *flag.FlagSet {
	return v.fs
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	v := &viewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(v)
	fs.StringVar(&v.file, "file", "", "drawing to open; created on first save when missing")
	fs.BoolVar(&v.watch, "watch", false, "reload the drawing when the file changes on disk")
	fs.StringVar(&v.title, "title", "", "title stored in the drawing")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if v.file == "" && fs.NArg() == 1 {
		v.file = fs.Arg(0)
	} else if fs.NArg() != 0 {
		return nil, &UsageError{of: v}
	}
	if v.watch && v.file == "" {
		return nil, fmt.Errorf("-watch needs a drawing file")
	}
	return v, nil
}

// savePath is where ctrl+s writes when no file was given.
func (v *viewCmd) savePath() string {
	if v.file != "" {
		return v.file
	}
	return "drawing.json"
}

func (v *viewCmd) Run() error {
	opts := []appstate.Option{
		appstate.WithTheme(v.root.activeTheme),
		appstate.WithLogger(v.log()),
		appstate.WithOnPaste(clipboard.Paste),
	}
	var eng *engine.Engine
	opts = append(opts,
		appstate.WithOnSave(func() (string, error) {
			path := v.savePath()
			if err := saveDrawing(eng, path); err != nil {
				return "", err
			}
			v.notifySave(path)
			return path, nil
		}),
		appstate.WithOnCopy(func(img *image.RGBA) error {
			if err := clipboard.Copy(img); err != nil {
				return err
			}
			v.notifyCopy("drawing")
			return nil
		}),
	)
	if v.watch {
		opts = append(opts, appstate.WithWatch(v.file, func() error {
			f, err := codec.LoadFile(v.file)
			if err != nil {
				return err
			}
			return eng.Load(f)
		}))
	}
	app := appstate.New(opts...)

	var err error
	eng, err = v.open(engine.WithOnDecoded(app.NotifyImageChanged), engine.WithOnCommit(app.MarkModified))
	if err != nil {
		return err
	}
	defer eng.Close()
	if v.title != "" {
		eng.SetTitle(v.title)
	}
	app.Engine = eng
	app.Run()
	return nil
}

func (v *viewCmd) open(extra ...engine.Option) (*engine.Engine, error) {
	if v.file != "" {
		f, err := codec.LoadFile(v.file)
		if err == nil {
			eng := engine.New(f.Width, f.Height, v.engineOptions(extra...)...)
			if err := eng.Load(f); err != nil {
				eng.Close()
				return nil, fmt.Errorf("open %s: %w", v.file, err)
			}
			return eng, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	w, h := v.canvasSize()
	eng := engine.New(w, h, v.engineOptions(extra...)...)
	name := filepath.Base(v.savePath())
	eng.SetTitle(name[:len(name)-len(filepath.Ext(name))])
	return eng, nil
}
