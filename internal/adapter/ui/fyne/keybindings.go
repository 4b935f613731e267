// Package fyne binds the playback session to a Fyne window.
package fyne

import (
	"log/slog"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// Controls is the part of the session the key bindings drive.
type Controls interface {
	TogglePlay()
	Next()
	Previous()
}

// textInput matches entry-like widgets, including custom ones that embed widget.Entry.
type textInput interface {
	SetPlaceHolder(string)
}

// KeyBindings maps window keys onto session controls:
//
//	Space → TogglePlay, Right → Next, Left → Previous
//
// Keys are ignored while a text input has focus.
//
// Thread-safety: Attach and Detach are safe for concurrent use.
type KeyBindings struct {
	logger   *slog.Logger
	controls Controls

	mu       sync.Mutex
	canvas   fyneapp.Canvas
	previous func(*fyneapp.KeyEvent)
}

// NewKeyBindings creates key bindings for controls.
func NewKeyBindings(logger *slog.Logger, controls Controls) *KeyBindings {
	return &KeyBindings{
		logger:   logger.With("component", "keybindings"),
		controls: controls,
	}
}

// HandleKey runs the control bound to ev and reports whether the key was consumed.
func (k *KeyBindings) HandleKey(ev *fyneapp.KeyEvent, focused fyneapp.Focusable) bool {
	if ev == nil || isTextInput(focused) {
		return false
	}

	switch ev.Name {
	case fyneapp.KeySpace:
		k.controls.TogglePlay()
	case fyneapp.KeyRight:
		k.controls.Next()
	case fyneapp.KeyLeft:
		k.controls.Previous()
	default:
		return false
	}

	k.logger.Debug("key handled", slog.String("key", string(ev.Name)))
	return true
}

func isTextInput(focused fyneapp.Focusable) bool {
	switch focused.(type) {
	case nil:
		return false
	case *widget.Entry, *widget.SelectEntry:
		return true
	case textInput:
		return true
	default:
		return false
	}
}

// Attach installs the bindings on c for the lifetime of the session.
// Keys the bindings do not consume reach the handler that was installed before.
// Attaching again moves the bindings to the new canvas.
func (k *KeyBindings) Attach(c fyneapp.Canvas) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.detachLocked()

	previous := c.OnTypedKey()
	k.canvas = c
	k.previous = previous

	c.SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		if k.HandleKey(ev, c.Focused()) {
			return
		}
		if previous != nil {
			previous(ev)
		}
	})
}

// Detach restores the canvas key handler that was installed before Attach.
func (k *KeyBindings) Detach() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.detachLocked()
}

func (k *KeyBindings) detachLocked() {
	if k.canvas == nil {
		return
	}
	k.canvas.SetOnTypedKey(k.previous)
	k.canvas = nil
	k.previous = nil
}
