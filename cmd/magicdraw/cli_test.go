package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/example/magicdraw/internal/config"
	"github.com/example/magicdraw/internal/engine"
)

func testRoot() *root {
	return &root{program: "magicdraw", config: config.New()}
}

func TestSplitDrawArgsKeepsNegativeNumbers(t *testing.T) {
	flags, positionals, err := splitDrawArgs([]string{"rect", "-5", "10", "-file", "a.json", "20", "-3.5", "-color=red"})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if want := []string{"-file", "a.json", "-color=red"}; !reflect.DeepEqual(flags, want) {
		t.Fatalf("flags = %v, want %v", flags, want)
	}
	if want := []string{"rect", "-5", "10", "20", "-3.5"}; !reflect.DeepEqual(positionals, want) {
		t.Fatalf("positionals = %v, want %v", positionals, want)
	}
	if _, _, err := splitDrawArgs([]string{"rect", "-file"}); err == nil {
		t.Fatalf("expected missing value error")
	}
}

func TestParseDrawErrors(t *testing.T) {
	r := testRoot()
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"rect", "0", "0", "1", "1"}, "input file is required"},
		{[]string{"-file", "a.json", "move", "0", "0", "1", "1"}, "not move"},
		{[]string{"-file", "a.json", "rect", "0", "0", "1"}, "requires x0 y0 x1 y1"},
		{[]string{"-file", "a.json", "pencil", "0", "0"}, "at least two x y points"},
		{[]string{"-file", "a.json", "spray", "0", "0", "1", "1"}, "unknown tool"},
		{[]string{"-file", "a.json", "-color", "nope", "circle", "0", "0", "1", "1"}, "invalid color"},
	}
	for _, c := range cases {
		_, err := parseDrawCmd(c.args, r)
		if err == nil {
			t.Fatalf("%v: expected error", c.args)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%v: expected error to mention %q, got %v", c.args, c.want, err)
		}
	}

	var uerr *UsageError
	if _, err := parseDrawCmd([]string{"-file", "a.json"}, r); !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(uerr.Error(), "magicdraw draw") {
		t.Fatalf("expected rendered help, got %q", uerr.Error())
	}
}

func TestDrawCreatesAndAppends(t *testing.T) {
	r := testRoot()
	path := filepath.Join(t.TempDir(), "doc.json")
	for _, args := range [][]string{
		{"-file", path, "rect", "10", "10", "40", "40"},
		{"-file", path, "-color", "navy", "-width", "6", "pencil", "0", "0", "20", "5", "30", "30"},
	} {
		cmd, err := parseDrawCmd(args, r)
		if err != nil {
			t.Fatalf("parse %v: %v", args, err)
		}
		if err := cmd.Run(); err != nil {
			t.Fatalf("run %v: %v", args, err)
		}
	}
	eng, err := r.openDrawing(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()
	shapes := eng.ActiveLayer().Shapes
	if len(shapes) != 2 {
		t.Fatalf("expected two shapes, got %d", len(shapes))
	}
	if got := shapes[1].Common().StrokeColor; got != "navy" {
		t.Fatalf("expected navy stroke, got %q", got)
	}
}

func TestDrawRefusesLockedLayer(t *testing.T) {
	r := testRoot()
	path := filepath.Join(t.TempDir(), "locked.json")
	eng := engine.New(100, 100)
	eng.SetLayerLocked(eng.ActiveLayer().ID, true)
	if err := saveDrawing(eng, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	eng.Close()

	cmd, err := parseDrawCmd([]string{"-file", path, "rect", "0", "0", "10", "10"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); !errors.Is(err, engine.ErrLayerLocked) {
		t.Fatalf("expected locked error, got %v", err)
	}
}

func TestOpenDrawingCreate(t *testing.T) {
	r := testRoot()
	r.config.Width, r.config.Height = 320, 200
	path := filepath.Join(t.TempDir(), "fresh.json")
	if _, err := r.openDrawing(path, false); err == nil {
		t.Fatalf("expected missing file error")
	}
	eng, err := r.openDrawing(path, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()
	if w, h := eng.Size(); w != 320 || h != 200 {
		t.Fatalf("expected configured size, got %dx%d", w, h)
	}
	if eng.Title() != "fresh" {
		t.Fatalf("expected title from file name, got %q", eng.Title())
	}
}

func TestInspectOutline(t *testing.T) {
	eng := engine.New(200, 100)
	defer eng.Close()
	eng.SetTitle("Plan")
	eng.SetTool(engine.ToolRectangle)
	gesture(eng, []float64{50, 40, 10, 10})
	eng.AddLayer("Notes")

	var buf bytes.Buffer
	if err := writeOutline(&buf, eng); err != nil {
		t.Fatalf("outline: %v", err)
	}
	var got outline
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("yaml: %v\n%s", err, buf.String())
	}
	if got.Title != "Plan" || got.Width != 200 || got.Height != 100 || len(got.Layers) != 2 {
		t.Fatalf("unexpected outline %+v", got)
	}
	if got.Active != got.Layers[1].ID || got.Layers[1].Name != "Notes" {
		t.Fatalf("expected Notes to be active, got %+v", got)
	}
	shapes := got.Layers[0].Shapes
	if len(shapes) != 1 || shapes[0].Kind != "rectangle" {
		t.Fatalf("unexpected shapes %+v", shapes)
	}
	if box := shapes[0].Bounds; box[0] != 10 || box[1] != 10 || box[2] != 40 || box[3] != 30 {
		t.Fatalf("expected normalised box, got %v", box)
	}
}

func TestParseExportNeedsWork(t *testing.T) {
	r := testRoot()
	if _, err := parseExportCmd([]string{"-file", "a.json"}, r); err == nil || !strings.Contains(err.Error(), "nothing to do") {
		t.Fatalf("expected nothing to do error, got %v", err)
	}
	cmd, err := parseExportCmd([]string{"-file", "a.json", "out.png"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.output != "out.png" {
		t.Fatalf("expected positional output, got %q", cmd.output)
	}
}

func TestConfigWriteFormats(t *testing.T) {
	r := testRoot()
	r.config.Theme = "dark"
	c := &configCmd{root: r}
	var rc, toml bytes.Buffer
	if err := c.write(&rc, "rc"); err != nil {
		t.Fatalf("rc: %v", err)
	}
	if err := c.write(&toml, "toml"); err != nil {
		t.Fatalf("toml: %v", err)
	}
	if !strings.Contains(rc.String(), "dark") || !strings.Contains(toml.String(), "dark") {
		t.Fatalf("expected theme in both formats:\n%s\n%s", rc.String(), toml.String())
	}
	if err := c.write(&rc, "ini"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestListColorsFilter(t *testing.T) {
	var buf bytes.Buffer
	if err := listColors(&buf, "olive"); err != nil {
		t.Fatalf("list: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "olivedrab") || !strings.Contains(out, "#808000") {
		t.Fatalf("unexpected listing %q", out)
	}
	if strings.Contains(out, "navy") {
		t.Fatalf("filter leaked other colours: %q", out)
	}
	buf.Reset()
	if err := listColors(&buf, "zzz"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "no colours match" {
		t.Fatalf("unexpected empty listing %q", buf.String())
	}
}
