package fyne

import (
	"testing"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestream/tunestream/internal/logger"
)

type fakeControls struct {
	toggles, nexts, previouses int
}

func (c *fakeControls) TogglePlay() { c.toggles++ }
func (c *fakeControls) Next()       { c.nexts++ }
func (c *fakeControls) Previous()   { c.previouses++ }

func key(name fyneapp.KeyName) *fyneapp.KeyEvent {
	return &fyneapp.KeyEvent{Name: name}
}

func TestKeyBindings_HandleKey(t *testing.T) {
	controls := &fakeControls{}
	kb := NewKeyBindings(logger.NewTestLogger(), controls)

	assert.True(t, kb.HandleKey(key(fyneapp.KeySpace), nil))
	assert.True(t, kb.HandleKey(key(fyneapp.KeyRight), nil))
	assert.True(t, kb.HandleKey(key(fyneapp.KeyRight), nil))
	assert.True(t, kb.HandleKey(key(fyneapp.KeyLeft), nil))
	assert.False(t, kb.HandleKey(key(fyneapp.KeyA), nil))
	assert.False(t, kb.HandleKey(nil, nil))

	assert.Equal(t, 1, controls.toggles)
	assert.Equal(t, 2, controls.nexts)
	assert.Equal(t, 1, controls.previouses)
}

func TestKeyBindings_IgnoredInTextInput(t *testing.T) {
	test.NewTempApp(t)
	controls := &fakeControls{}
	kb := NewKeyBindings(logger.NewTestLogger(), controls)

	inputs := []fyneapp.Focusable{
		widget.NewEntry(),
		widget.NewPasswordEntry(),
		widget.NewSelectEntry([]string{"a", "b"}),
	}
	for _, input := range inputs {
		assert.False(t, kb.HandleKey(key(fyneapp.KeySpace), input))
		assert.False(t, kb.HandleKey(key(fyneapp.KeyRight), input))
	}
	assert.Zero(t, controls.toggles)
	assert.Zero(t, controls.nexts)

	// A focused button is not a text input
	assert.True(t, kb.HandleKey(key(fyneapp.KeySpace), widget.NewButton("play", nil)))
	assert.Equal(t, 1, controls.toggles)
}

func TestKeyBindings_AttachDetach(t *testing.T) {
	app := test.NewTempApp(t)
	window := app.NewWindow("player")
	defer window.Close()

	entry := widget.NewEntry()
	window.SetContent(container.NewVBox(entry, widget.NewButton("play", nil)))
	c := window.Canvas()

	var fallthroughKeys []fyneapp.KeyName
	c.SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		fallthroughKeys = append(fallthroughKeys, ev.Name)
	})

	controls := &fakeControls{}
	kb := NewKeyBindings(logger.NewTestLogger(), controls)
	kb.Attach(c)

	handler := c.OnTypedKey()
	require.NotNil(t, handler)

	handler(key(fyneapp.KeySpace))
	handler(key(fyneapp.KeyLeft))
	handler(key(fyneapp.KeyA))
	assert.Equal(t, 1, controls.toggles)
	assert.Equal(t, 1, controls.previouses)
	assert.Equal(t, []fyneapp.KeyName{fyneapp.KeyA}, fallthroughKeys)

	// Focus inside the entry: bindings step aside
	c.Focus(entry)
	c.OnTypedKey()(key(fyneapp.KeySpace))
	assert.Equal(t, 1, controls.toggles)
	c.Unfocus()

	// Detach restores the previous handler
	kb.Detach()
	c.OnTypedKey()(key(fyneapp.KeySpace))
	assert.Equal(t, 1, controls.toggles)
	assert.Equal(t, []fyneapp.KeyName{fyneapp.KeyA, fyneapp.KeySpace, fyneapp.KeySpace}, fallthroughKeys)

	// Detaching twice is harmless
	kb.Detach()
}
