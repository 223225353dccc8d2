package notify

import (
	"image"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/magicdraw/internal/platform"
)

type sent struct {
	title, body string
	subtitle    string
	category    string
	icon        string
	iconExisted bool
}

func recorder(out *[]sent) Sender {
	return func(title, body string, opts platform.Options) error {
		s := sent{title: title, body: body, subtitle: opts.Subtitle, category: opts.Category, icon: opts.IconPath}
		if opts.IconPath != "" {
			_, err := os.Stat(opts.IconPath)
			s.iconExisted = err == nil
		}
		*out = append(*out, s)
		return nil
	}
}

func TestDisabledEventsAreSilent(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences()).WithSender(recorder(&got))
	n.Save("a.mdraw")
	n.Copy("")
	n.Export("a.png", nil)
	assert.Empty(t, got)

	var nilNotifier *Notifier
	nilNotifier.Save("x")
	nilNotifier.Enable(EventSave, true)
}

func TestEnabledEventsFormatTemplates(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences()).WithSender(recorder(&got))
	for _, e := range Events() {
		n.Enable(e, true)
	}
	n.Copy("")
	n.Export("out.png", image.NewRGBA(image.Rect(0, 0, 2, 2)))
	n.Save("dir/plan.json")
	require.Len(t, got, 3)
	assert.Equal(t, platform.AppName, got[0].title)
	assert.Equal(t, "Copied drawing to clipboard", got[0].body)
	assert.Contains(t, got[1].body, "Exported ")
	assert.Contains(t, got[1].body, "out.png")
	assert.True(t, got[1].iconExisted)
	_, err := os.Stat(got[1].icon)
	assert.True(t, os.IsNotExist(err), "preview is removed after sending")
	assert.Empty(t, got[0].subtitle)
	assert.Equal(t, "out.png", got[1].subtitle)
	assert.Equal(t, "plan.json", got[2].subtitle)
	assert.Equal(t, "transfer.complete", got[2].category)
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	t.Setenv("MAGICDRAW_NOTIFY_TITLE", "Sketchpad")
	t.Setenv("MAGICDRAW_NOTIFY_SAVE_TEXT", "Wrote %s")
	p := LoadPreferences()
	assert.Equal(t, "Sketchpad", p.Title)
	assert.Equal(t, "Wrote %s", p.Events[EventSave].Template)
	assert.Equal(t, DefaultPreferences().Events[EventCopy], p.Events[EventCopy])
}
