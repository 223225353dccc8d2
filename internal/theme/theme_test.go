package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader(`
# comment
Name: mine
background: #112233
Halo: red
Unknown: #ffffff
`))
	require.NoError(t, err)
	assert.Equal(t, "mine", th.Name)
	assert.Equal(t, color.RGBA{0x11, 0x22, 0x33, 255}, th.Background)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, th.Halo)
	assert.Equal(t, Default().Foreground, th.Foreground)
}

func TestParseBadColour(t *testing.T) {
	_, err := Parse(strings.NewReader("Background: #12"))
	assert.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	th := Default()
	th.CheckerDark = color.RGBA{1, 2, 3, 255}
	again, err := Parse(strings.NewReader(th.String()))
	require.NoError(t, err)
	assert.Equal(t, th, again)
}

func TestLoaderSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ocean.theme"), []byte("Name: ocean\nBackground: #000080\n"), 0o644))
	l := &Loader{ConfigDir: dir}

	dark, err := l.Load("dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", dark.Name)

	ocean, err := l.Load("ocean")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0x80, 255}, ocean.Background)

	byPath, err := l.Load(filepath.Join(dir, "ocean.theme"))
	require.NoError(t, err)
	assert.Equal(t, "ocean", byPath.Name)

	_, err = l.Load("missing")
	assert.Error(t, err)

	def, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), def)

	assert.Equal(t, []string{"dark", "default", "ocean"}, l.Available())
}
