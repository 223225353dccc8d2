package config

import (
	"fmt"
	"io"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/example/magicdraw/internal/theme"
)

// tomlFile mirrors Config for the TOML variant. Themes live under
// [themes.<name>] because "theme" is already the root key naming the
// active theme.
type tomlFile struct {
	Theme        string                       `toml:"theme,omitempty"`
	SaveDir      string                       `toml:"save_dir,omitempty"`
	Width        int                          `toml:"width,omitempty"`
	Height       int                          `toml:"height,omitempty"`
	Scale        float64                      `toml:"scale,omitempty"`
	HistoryLimit int                          `toml:"history_limit,omitempty"`
	ImageFit     float64                      `toml:"image_fit,omitempty"`
	StrokeColor  string                       `toml:"stroke_color,omitempty"`
	StrokeWidth  float64                      `toml:"stroke_width,omitempty"`
	LogLevel     string                       `toml:"log_level,omitempty"`
	Notify       Notify                       `toml:"notify"`
	Themes       map[string]map[string]string `toml:"themes,omitempty"`
}

// ParseTOML reads configuration in TOML format.
func ParseTOML(r io.Reader) (*Config, error) {
	var f tomlFile
	if err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("toml config: %w", err)
	}
	cfg := New()
	cfg.Theme = f.Theme
	cfg.SaveDir = f.SaveDir
	cfg.Width = f.Width
	cfg.Height = f.Height
	cfg.Scale = f.Scale
	cfg.HistoryLimit = f.HistoryLimit
	cfg.ImageFit = f.ImageFit
	cfg.StrokeColor = f.StrokeColor
	cfg.StrokeWidth = f.StrokeWidth
	cfg.LogLevel = f.LogLevel
	cfg.Notify = f.Notify
	for name, fields := range f.Themes {
		t := theme.Default()
		t.Name = name
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := t.Set(k, fields[k]); err != nil {
				return nil, fmt.Errorf("error in [themes.%s]: %w", name, err)
			}
		}
		cfg.Themes[name] = t
	}
	return cfg, nil
}

// TOML renders the configuration in the TOML variant.
func (c *Config) TOML() ([]byte, error) {
	f := tomlFile{
		Theme:        c.Theme,
		SaveDir:      c.SaveDir,
		Width:        c.Width,
		Height:       c.Height,
		Scale:        c.Scale,
		HistoryLimit: c.HistoryLimit,
		ImageFit:     c.ImageFit,
		StrokeColor:  c.StrokeColor,
		StrokeWidth:  c.StrokeWidth,
		LogLevel:     c.LogLevel,
		Notify:       c.Notify,
	}
	if len(c.Themes) > 0 {
		f.Themes = map[string]map[string]string{}
		for name, t := range c.Themes {
			fields := map[string]string{"Name": t.Name}
			for _, kv := range t.Fields() {
				fields[kv[0]] = kv[1]
			}
			f.Themes[name] = fields
		}
	}
	return toml.Marshal(f)
}
