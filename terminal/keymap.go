// @focus: #sys { io } #input { keymap }
package terminal

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LineAction is a line editor command
type LineAction uint8

const (
	ActionNone LineAction = iota
	ActionAccept
	ActionInterrupt
	ActionEOF // end of input on an empty line, delete forward otherwise
	ActionBackwardChar
	ActionForwardChar
	ActionBackwardWord
	ActionForwardWord
	ActionLineStart
	ActionLineEnd
	ActionDeleteBackward
	ActionDeleteForward
	ActionDeleteWordBackward
	ActionDeleteWordForward
	ActionKillToEnd
	ActionKillToStart
	ActionTranspose
	ActionHistoryPrev
	ActionHistoryNext
	ActionClearScreen

	actionCount
)

var actionNames = [actionCount]string{
	ActionNone:               "none",
	ActionAccept:             "accept",
	ActionInterrupt:          "interrupt",
	ActionEOF:                "eof",
	ActionBackwardChar:       "backward_char",
	ActionForwardChar:        "forward_char",
	ActionBackwardWord:       "backward_word",
	ActionForwardWord:        "forward_word",
	ActionLineStart:          "line_start",
	ActionLineEnd:            "line_end",
	ActionDeleteBackward:     "delete_backward",
	ActionDeleteForward:      "delete_forward",
	ActionDeleteWordBackward: "delete_word_backward",
	ActionDeleteWordForward:  "delete_word_forward",
	ActionKillToEnd:          "kill_to_end",
	ActionKillToStart:        "kill_to_start",
	ActionTranspose:          "transpose",
	ActionHistoryPrev:        "history_prev",
	ActionHistoryNext:        "history_next",
	ActionClearScreen:        "clear_screen",
}

func (a LineAction) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return "unknown"
}

// ActionByName resolves a config action name
func ActionByName(name string) (LineAction, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return LineAction(a), true
		}
	}
	return ActionNone, false
}

// binding is a key plus exact modifier set
type binding struct {
	key Key
	mod Modifier
}

// Keymap binds keys to line editor actions
type Keymap struct {
	bindings map[binding]LineAction
}

// DefaultKeymap returns emacs-style bindings
func DefaultKeymap() *Keymap {
	km := &Keymap{bindings: make(map[binding]LineAction, 40)}
	for _, b := range []struct {
		key    Key
		mod    Modifier
		action LineAction
	}{
		{KeyEnter, ModNone, ActionAccept},
		{KeyCtrlC, ModNone, ActionInterrupt},
		{KeyCtrlD, ModNone, ActionEOF},
		{KeyLeft, ModNone, ActionBackwardChar},
		{KeyCtrlB, ModNone, ActionBackwardChar},
		{KeyRight, ModNone, ActionForwardChar},
		{KeyCtrlF, ModNone, ActionForwardChar},
		{KeyLeft, ModCtrl, ActionBackwardWord},
		{KeyLeft, ModAlt, ActionBackwardWord},
		{KeyRight, ModCtrl, ActionForwardWord},
		{KeyRight, ModAlt, ActionForwardWord},
		{KeyHome, ModNone, ActionLineStart},
		{KeyCtrlA, ModNone, ActionLineStart},
		{KeyEnd, ModNone, ActionLineEnd},
		{KeyCtrlE, ModNone, ActionLineEnd},
		{KeyBackspace, ModNone, ActionDeleteBackward},
		{KeyDelete, ModNone, ActionDeleteForward},
		{KeyCtrlW, ModNone, ActionDeleteWordBackward},
		{KeyBackspace, ModAlt, ActionDeleteWordBackward},
		{KeyBackspace, ModCtrl, ActionDeleteWordBackward},
		{KeyDelete, ModCtrl, ActionDeleteWordForward},
		{KeyCtrlK, ModNone, ActionKillToEnd},
		{KeyCtrlU, ModNone, ActionKillToStart},
		{KeyCtrlT, ModNone, ActionTranspose},
		{KeyUp, ModNone, ActionHistoryPrev},
		{KeyCtrlP, ModNone, ActionHistoryPrev},
		{KeyDown, ModNone, ActionHistoryNext},
		{KeyCtrlN, ModNone, ActionHistoryNext},
		{KeyCtrlL, ModNone, ActionClearScreen},
	} {
		km.bindings[binding{b.key, b.mod}] = b.action
	}
	return km
}

// Lookup returns the action bound to a key event. Alt+b, Alt+f and
// Alt+d follow readline word commands
func (km *Keymap) Lookup(ev Event) LineAction {
	if ev.Type != EventKey {
		return ActionNone
	}
	if ev.Key == KeyRune {
		if ev.Modifiers&ModAlt != 0 {
			switch ev.Rune {
			case 'b':
				return ActionBackwardWord
			case 'f':
				return ActionForwardWord
			case 'd':
				return ActionDeleteWordForward
			}
		}
		return ActionNone
	}
	if km == nil {
		return ActionNone
	}
	return km.bindings[binding{ev.Key, ev.Modifiers}]
}

// Bind sets the action for key with modifiers; ActionNone removes it
func (km *Keymap) Bind(key Key, mod Modifier, action LineAction) {
	if action == ActionNone {
		delete(km.bindings, binding{key, mod})
		return
	}
	km.bindings[binding{key, mod}] = action
}

// Clone returns an independent copy
func (km *Keymap) Clone() *Keymap {
	c := &Keymap{bindings: make(map[binding]LineAction, len(km.bindings))}
	for k, v := range km.bindings {
		c.bindings[k] = v
	}
	return c
}

// ParseKeymap reads TOML key bindings over the defaults. Bindings live
// in the [line] table as key name = action name, e.g.
//
//	[line]
//	ctrl_j = "accept"
//	"alt+left" = "line_start"
//	ctrl_t = "none"
//
// "none" removes a default binding
func ParseKeymap(data []byte) (*Keymap, error) {
	var doc struct {
		Line map[string]string `toml:"line"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("keymap parse: %w", err)
	}
	return keymapFromTable(doc.Line)
}

// keymapFromTable applies name -> action bindings over the defaults
func keymapFromTable(table map[string]string) (*Keymap, error) {
	km := DefaultKeymap()
	for keyStr, actionName := range table {
		key, mod, err := parseKeySpec(keyStr)
		if err != nil {
			return nil, fmt.Errorf("[line] key %q: %w", keyStr, err)
		}
		action, ok := ActionByName(actionName)
		if !ok {
			return nil, fmt.Errorf("[line] key %q: unknown action: %q", keyStr, actionName)
		}
		km.Bind(key, mod, action)
	}
	return km, nil
}

// parseKeySpec splits "ctrl+alt+left" style names into modifiers and a
// canonical key name
func parseKeySpec(s string) (Key, Modifier, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var mod Modifier
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "ctrl", "control":
			mod |= ModCtrl
		case "alt", "meta":
			mod |= ModAlt
		case "shift":
			mod |= ModShift
		default:
			return KeyNone, ModNone, fmt.Errorf("unknown modifier: %q", p)
		}
	}
	name := parts[len(parts)-1]
	k, ok := KeyByName(name)
	if !ok {
		return KeyNone, ModNone, fmt.Errorf("unknown key name: %q", name)
	}
	return k, mod, nil
}
