package appstate

import (
	"testing"

	"golang.org/x/mobile/event/key"

	"github.com/example/magicdraw/internal/engine"
)

func TestDefaultKeymapLookup(t *testing.T) {
	k := DefaultKeymap()
	cases := []struct {
		name string
		ev   key.Event
		want Action
	}{
		{"undo", key.Event{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl}, ActionUndo},
		{"redo ctrl+y", key.Event{Rune: 'y', Code: key.CodeY, Modifiers: key.ModControl}, ActionRedo},
		{"redo ctrl+shift+z", key.Event{Rune: 'Z', Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift}, ActionRedo},
		{"save by code", key.Event{Rune: -1, Code: key.CodeS, Modifiers: key.ModControl}, ActionSave},
		{"upper case tool", key.Event{Rune: 'R', Code: key.CodeR, Modifiers: key.ModShift}, toolAction(engine.ToolRectangle)},
		{"shifted plus", key.Event{Rune: '+', Code: key.CodeEqualSign, Modifiers: key.ModShift}, ActionZoomIn},
		{"backspace", key.Event{Code: key.CodeDeleteBackspace}, ActionDelete},
		{"new layer", key.Event{Rune: 'n', Code: key.CodeN}, ActionNewLayer},
	}
	for _, c := range cases {
		got, ok := k.Lookup(c.ev)
		if !ok || got != c.want {
			t.Fatalf("%s: got %q (%v), want %q", c.name, got, ok, c.want)
		}
	}
	if a, ok := k.Lookup(key.Event{Rune: 'x', Code: key.CodeX}); ok {
		t.Fatalf("unexpected binding %q for x", a)
	}
	if a, ok := k.Lookup(key.Event{Rune: 'z', Code: key.CodeZ}); ok {
		t.Fatalf("plain z should not be bound, got %q", a)
	}
}

func TestToolShortcutsCoverEveryTool(t *testing.T) {
	k := DefaultKeymap()
	for _, tool := range engine.Tools() {
		r := ToolKey(tool)
		if r == 0 {
			t.Fatalf("no key for %s", tool)
		}
		a, ok := k.Lookup(key.Event{Rune: r})
		if !ok {
			t.Fatalf("key %c not bound", r)
		}
		got, ok := a.ToolOf()
		if !ok || got != tool {
			t.Fatalf("key %c selects %q, want %q", r, got, tool)
		}
	}
	if _, ok := ActionUndo.ToolOf(); ok {
		t.Fatalf("undo is not a tool action")
	}
}
