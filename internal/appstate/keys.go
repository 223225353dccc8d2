package appstate

import (
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/magicdraw/internal/engine"
)

// Action names something a key or a status line shortcut triggers.
type Action string

const (
	ActionUndo      Action = "undo"
	ActionRedo      Action = "redo"
	ActionNewLayer  Action = "layer-new"
	ActionLayerUp   Action = "layer-up"
	ActionLayerDown Action = "layer-down"
	ActionToggle    Action = "layer-toggle"
	ActionDelete    Action = "delete"
	ActionSave      Action = "save"
	ActionCopy      Action = "copy"
	ActionPaste     Action = "paste"
	ActionZoomIn    Action = "zoom-in"
	ActionZoomOut   Action = "zoom-out"
	ActionZoomFit   Action = "zoom-fit"
	ActionQuit      Action = "quit"
)

// toolAction is the action that selects tool t.
func toolAction(t engine.Tool) Action { return Action("tool:" + string(t)) }

// ToolOf reports which tool an action selects.
func (a Action) ToolOf() (engine.Tool, bool) {
	const prefix = "tool:"
	if len(a) <= len(prefix) || string(a[:len(prefix)]) != prefix {
		return "", false
	}
	t, err := engine.ParseTool(string(a[len(prefix):]))
	return t, err == nil
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// toolKeys maps the single letter tool shortcuts.
var toolKeys = map[rune]engine.Tool{
	'm': engine.ToolMove,
	'p': engine.ToolPencil,
	'b': engine.ToolBrush,
	'e': engine.ToolEraser,
	'r': engine.ToolRectangle,
	'c': engine.ToolCircle,
	't': engine.ToolTriangle,
}

// ToolKey returns the letter that selects t.
func ToolKey(t engine.Tool) rune {
	for r, tool := range toolKeys {
		if tool == t {
			return r
		}
	}
	return 0
}

func ctrl(r rune, code key.Code) shortcutList {
	return shortcutList{
		{Rune: r, Modifiers: key.ModControl},
		{Code: code, Modifiers: key.ModControl},
	}
}

// Keymap resolves key events to actions.
type Keymap map[KeyShortcut]Action

func (k Keymap) bind(a Action, keys KeyboardShortcuts) {
	for _, sc := range keys.KeyboardShortcuts() {
		k[sc] = a
	}
}

// DefaultKeymap returns the viewer's key bindings.
func DefaultKeymap() Keymap {
	k := Keymap{}
	for r, t := range toolKeys {
		k.bind(toolAction(t), shortcutList{{Rune: r}})
	}
	k.bind(ActionUndo, ctrl('z', key.CodeZ))
	k.bind(ActionRedo, ctrl('y', key.CodeY))
	k.bind(ActionRedo, shortcutList{
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
		{Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift},
	})
	k.bind(ActionSave, ctrl('s', key.CodeS))
	k.bind(ActionCopy, ctrl('c', key.CodeC))
	k.bind(ActionPaste, ctrl('v', key.CodeV))
	k.bind(ActionNewLayer, shortcutList{{Rune: 'n'}})
	k.bind(ActionToggle, shortcutList{{Rune: 'h'}})
	k.bind(ActionLayerUp, shortcutList{{Rune: ']'}})
	k.bind(ActionLayerDown, shortcutList{{Rune: '['}})
	k.bind(ActionDelete, shortcutList{{Code: key.CodeDeleteForward}, {Code: key.CodeDeleteBackspace}})
	k.bind(ActionZoomIn, shortcutList{{Rune: '+'}, {Rune: '='}})
	k.bind(ActionZoomOut, shortcutList{{Rune: '-'}})
	k.bind(ActionZoomFit, shortcutList{{Rune: '0'}})
	k.bind(ActionQuit, shortcutList{{Rune: 'q'}})
	return k
}

// Lookup finds the action for a key press. Letters match regardless of
// case and shift is ignored for keys bound without it.
func (k Keymap) Lookup(e key.Event) (Action, bool) {
	mods := e.Modifiers & (key.ModControl | key.ModShift | key.ModAlt | key.ModMeta)
	var candidates []KeyShortcut
	if e.Rune > 0 {
		r := unicode.ToLower(e.Rune)
		candidates = append(candidates,
			KeyShortcut{Rune: r, Modifiers: mods},
			KeyShortcut{Rune: r, Modifiers: mods &^ key.ModShift},
		)
	}
	candidates = append(candidates,
		KeyShortcut{Code: e.Code, Modifiers: mods},
		KeyShortcut{Code: e.Code, Modifiers: mods &^ key.ModShift},
	)
	for _, c := range candidates {
		if c.Code == key.CodeUnknown && c.Rune == 0 {
			continue
		}
		if a, ok := k[c]; ok {
			return a, true
		}
	}
	return "", false
}
