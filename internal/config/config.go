package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/magicdraw/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Save   bool `toml:"save"`
	Copy   bool `toml:"copy"`
	Export bool `toml:"export"`
}

// Config holds the application configuration. Zero values mean "not set"
// so command line flags and built-in defaults can take over.
type Config struct {
	Theme        string
	SaveDir      string
	Width        int
	Height       int
	Scale        float64
	HistoryLimit int
	ImageFit     float64
	StrokeColor  string
	StrokeWidth  float64
	LogLevel     string
	Notify       Notify
	Themes       map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:  "", // Default to empty to allow fallback to Env/Default
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	root := []struct {
		key string
		set bool
		val any
	}{
		{"theme", c.Theme != "", c.Theme},
		{"save_dir", c.SaveDir != "", c.SaveDir},
		{"width", c.Width > 0, c.Width},
		{"height", c.Height > 0, c.Height},
		{"scale", c.Scale > 0, c.Scale},
		{"history_limit", c.HistoryLimit > 0, c.HistoryLimit},
		{"image_fit", c.ImageFit > 0, c.ImageFit},
		{"stroke_color", c.StrokeColor != "", c.StrokeColor},
		{"stroke_width", c.StrokeWidth > 0, c.StrokeWidth},
		{"log_level", c.LogLevel != "", c.LogLevel},
	}
	for _, kv := range root {
		if kv.set {
			fmt.Fprintf(&sb, "%s = %v\n", kv.key, kv.val)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		sb.WriteString(c.Themes[name].String())
		sb.WriteString("\n")
	}

	return sb.String()
}
