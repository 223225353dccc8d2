package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/magicdraw/internal/codec"
	"github.com/example/magicdraw/internal/engine"
)

// openDrawing loads the drawing at path. When create is set a missing file
// yields a blank canvas of the configured size instead of an error. Extra
// options are appended to the configured ones.
func (r *root) openDrawing(path string, create bool, extra ...engine.Option) (*engine.Engine, error) {
	f, err := codec.LoadFile(path)
	if err != nil {
		if create && errors.Is(err, os.ErrNotExist) {
			w, h := r.canvasSize()
			eng := engine.New(w, h, r.engineOptions(extra...)...)
			eng.SetTitle(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			return eng, nil
		}
		return nil, err
	}
	eng := engine.New(f.Width, f.Height, r.engineOptions(extra...)...)
	if err := eng.Load(f); err != nil {
		eng.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return eng, nil
}

func saveDrawing(eng *engine.Engine, path string) error {
	f, err := eng.File("")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
	}
	return codec.SaveFile(path, f)
}

// finalImage renders everything including images still decoding.
func finalImage(eng *engine.Engine) *image.RGBA {
	eng.Flush()
	eng.WaitDecodes()
	return eng.Flush()
}

// writeImage writes img to path in the format its extension names. PDF
// pages keep the drawing's logical size.
func writeImage(img image.Image, path, title string, scale float64) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		err = codec.WritePDF(out, img, title, scale)
	} else {
		var format codec.Format
		format, err = codec.FormatFromPath(path)
		if err == nil {
			err = codec.Encode(out, img, format)
		}
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removeWithLog(path)
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// exportLayers writes each layer to dir as <layer id>.png.
func exportLayers(eng *engine.Engine, dir string) ([]string, error) {
	blobs, err := eng.ExportState()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(blobs))
	for _, b := range blobs {
		path := filepath.Join(dir, b.LayerID+".png")
		if err := os.WriteFile(path, b.Blob, 0o644); err != nil {
			return paths, fmt.Errorf("export layer %s: %w", b.LayerID, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// importLayers reads <layer id>.<ext> files from dir back into the layers
// they name. Files for unknown layers are ignored.
func importLayers(eng *engine.Engine, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var blobs []engine.LayerBlob
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if eng.Layer(id) == nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return 0, err
		}
		blobs = append(blobs, engine.LayerBlob{LayerID: id, Blob: data})
	}
	if err := eng.ImportState(blobs); err != nil {
		return 0, err
	}
	return len(blobs), nil
}
