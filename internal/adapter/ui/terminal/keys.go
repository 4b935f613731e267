// Package terminal drives the playback session from a raw-mode terminal.
package terminal

import "slices"

// Action is a player command decoded from terminal input.
type Action int

const (
	ActionNone Action = iota
	ActionTogglePlay
	ActionNext
	ActionPrevious
	ActionShuffle
	ActionRepeat
	ActionMiniView
	ActionQuit
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionTogglePlay:
		return "toggle-play"
	case ActionNext:
		return "next"
	case ActionPrevious:
		return "previous"
	case ActionShuffle:
		return "shuffle"
	case ActionRepeat:
		return "repeat"
	case ActionMiniView:
		return "mini-view"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

// Decoder turns raw terminal bytes into actions. Escape sequences split
// across reads are kept until the rest arrives.
type Decoder struct {
	pending []byte
}

// Feed decodes b and returns the completed actions in order.
func (d *Decoder) Feed(b []byte) []Action {
	buf := append(d.pending, b...)
	d.pending = nil

	var actions []Action
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if c != keyEsc {
			if a := byteAction(c); a != ActionNone {
				actions = append(actions, a)
			}
			continue
		}

		// ESC [ C / ESC [ D are the arrow keys
		rest := buf[i+1:]
		switch {
		case len(rest) == 0 || (len(rest) == 1 && rest[0] == '['):
			d.pending = slices.Clone(buf[i:])
			return actions
		case rest[0] != '[':
			// Alt+key arrives as ESC key
			i++
			continue
		}

		switch rest[1] {
		case 'C':
			actions = append(actions, ActionNext)
		case 'D':
			actions = append(actions, ActionPrevious)
		}
		i += 2
	}
	return actions
}

func byteAction(c byte) Action {
	switch c {
	case ' ':
		return ActionTogglePlay
	case 's', 'S':
		return ActionShuffle
	case 'r', 'R':
		return ActionRepeat
	case 'm', 'M':
		return ActionMiniView
	case 'q', 'Q', keyCtrlC:
		return ActionQuit
	default:
		return ActionNone
	}
}

// Controls is the part of the session the terminal drives.
type Controls interface {
	TogglePlay()
	Next()
	Previous()
	ToggleShuffleMode()
	ToggleRepeat()
	ToggleMiniView()
}

// Dispatch runs a on controls. It returns false for ActionQuit.
func Dispatch(controls Controls, a Action) bool {
	switch a {
	case ActionTogglePlay:
		controls.TogglePlay()
	case ActionNext:
		controls.Next()
	case ActionPrevious:
		controls.Previous()
	case ActionShuffle:
		controls.ToggleShuffleMode()
	case ActionRepeat:
		controls.ToggleRepeat()
	case ActionMiniView:
		controls.ToggleMiniView()
	case ActionQuit:
		return false
	}
	return true
}
