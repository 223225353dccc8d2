package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/magicdraw/internal/layer"
)

// FileVersion is written into every document.
const FileVersion = 1

// File is the JSON document format. Coordinates inside shapes are physical
// pixels; Width and Height are logical.
type File struct {
	Version       int          `json:"version"`
	Title         string       `json:"title,omitempty"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Scale         float64      `json:"scale"`
	ActiveLayerID string       `json:"activeLayerId"`
	Layers        []*FileLayer `json:"layers"`
}

// FileLayer is a layer plus its optional raster content as a data URL.
type FileLayer struct {
	*layer.Layer
	Content string `json:"content,omitempty"`
}

// NewFileLayer wraps l, encoding its raster content.
func NewFileLayer(l *layer.Layer) *FileLayer {
	fl := &FileLayer{Layer: l}
	if len(l.Content) > 0 {
		fl.Content = DataURL(l.Content)
	}
	return fl
}

// Restore returns the layer with its content decoded back to raw bytes.
func (fl *FileLayer) Restore() (*layer.Layer, error) {
	if fl.Layer == nil {
		return nil, errors.New("layer entry is empty")
	}
	l := fl.Layer
	if fl.Content != "" {
		raw, err := Unwrap([]byte(fl.Content))
		if err != nil {
			return nil, fmt.Errorf("layer %s content: %w", l.ID, err)
		}
		l.Content = raw
	}
	if l.Opacity < 0 || l.Opacity > 1 {
		l.Opacity = min(max(l.Opacity, 0), 1)
	}
	l.Blend = layer.ParseBlend(string(l.Blend))
	return l, nil
}

// Validate checks the structural rules every loaded document must follow.
func (f *File) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", f.Width, f.Height)
	}
	if len(f.Layers) == 0 {
		return errors.New("document has no layers")
	}
	seen := map[string]bool{}
	for _, fl := range f.Layers {
		if fl == nil || fl.Layer == nil {
			return errors.New("document has an empty layer entry")
		}
		if fl.ID == "" {
			return errors.New("layer without id")
		}
		if seen[fl.ID] {
			return fmt.Errorf("duplicate layer id %q", fl.ID)
		}
		seen[fl.ID] = true
	}
	return nil
}

// Write encodes f as indented JSON.
func (f *File) Write(w io.Writer) error {
	if f.Version == 0 {
		f.Version = FileVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Read decodes and validates a document.
func Read(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if f.Version > FileVersion {
		return nil, fmt.Errorf("document version %d is newer than supported %d", f.Version, FileVersion)
	}
	if f.Scale <= 0 {
		f.Scale = 1
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &f, nil
}

// SaveFile writes f to path atomically.
func SaveFile(path string, f *File) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".magicdraw-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// LoadFile reads the document at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer fh.Close()
	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return f, nil
}

