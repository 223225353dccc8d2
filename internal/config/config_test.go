package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/drawings
width = 1024
scale = 2
stroke_color = "#ff0000"
history_limit = 50

[notify]
save = true
copy = false
export = true

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/drawings" {
		t.Errorf("Expected save_dir '/tmp/drawings', got '%s'", cfg.SaveDir)
	}
	if cfg.Width != 1024 || cfg.Height != 0 {
		t.Errorf("Unexpected size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Scale != 2 {
		t.Errorf("Expected scale 2, got %v", cfg.Scale)
	}
	if cfg.StrokeColor != "#ff0000" {
		t.Errorf("Expected unquoted stroke colour, got %q", cfg.StrokeColor)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("Expected history_limit 50, got %d", cfg.HistoryLimit)
	}
	if want := (Notify{Save: true, Export: true}); cfg.Notify != want {
		t.Errorf("Notify = %+v, want %+v", cfg.Notify, want)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Background != (color.RGBA{0x11, 0x11, 0x11, 255}) {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
}

func TestParseRejectsBadNumbers(t *testing.T) {
	for _, in := range []string{"width = wide", "scale = x", "[notify]\nsave = maybe"} {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/drawings
image_fit = 0.5
log_level = debug

[notify]
save = true
copy = true
export = false

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
Halo = #00ff0080
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	if cfg.Theme != cfg2.Theme || cfg.SaveDir != cfg2.SaveDir || cfg.ImageFit != cfg2.ImageFit || cfg.LogLevel != cfg2.LogLevel {
		t.Errorf("Root mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	input := `
theme = "dark"
width = 640
height = 480
stroke_width = 4.5

[notify]
export = true

[themes.night]
Background = "#000010"
halo = "orange"
`
	cfg, err := ParseTOML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTOML failed: %v", err)
	}
	if cfg.Theme != "dark" || cfg.Width != 640 || cfg.Height != 480 || cfg.StrokeWidth != 4.5 {
		t.Errorf("Unexpected root values: %+v", cfg)
	}
	if !cfg.Notify.Export || cfg.Notify.Save {
		t.Errorf("Unexpected notify: %+v", cfg.Notify)
	}
	night := cfg.Themes["night"]
	if night == nil {
		t.Fatal("Expected theme 'night'")
	}
	if night.Halo != (color.RGBA{255, 165, 0, 255}) {
		t.Errorf("Unexpected halo: %+v", night.Halo)
	}

	out, err := cfg.TOML()
	if err != nil {
		t.Fatalf("TOML failed: %v", err)
	}
	again, err := ParseTOML(strings.NewReader(string(out)))
	if err != nil {
		t.Fatalf("Re-parse failed: %v\n%s", err, out)
	}
	if *again.Themes["night"] != *night {
		t.Errorf("Theme mismatch after round trip: %+v vs %+v", again.Themes["night"], night)
	}
}

func TestLoaderPrefersOverrideThenHome(t *testing.T) {
	home := t.TempDir()
	l := &Loader{Version: "test", Home: home}
	if got := l.GetConfigPath(); got != "" {
		t.Fatalf("Expected no config, got %q", got)
	}
	cfg, err := l.Load()
	if err != nil || cfg.Theme != "" {
		t.Fatalf("Expected defaults, got %+v, %v", cfg, err)
	}

	dir := filepath.Join(home, ".config", "magicdraw")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("theme = \"dark\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = l.Load()
	if err != nil || cfg.Theme != "dark" {
		t.Fatalf("Expected TOML config, got %+v, %v", cfg, err)
	}

	override := filepath.Join(home, "custom.rc")
	if err := os.WriteFile(override, []byte("theme = light\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l.OverridePath = override
	cfg, err = l.Load()
	if err != nil || cfg.Theme != "light" {
		t.Fatalf("Expected override config, got %+v, %v", cfg, err)
	}
}
