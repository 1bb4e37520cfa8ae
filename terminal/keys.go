// @focus: #sys { io } #input { keys }
package terminal

// Key represents a parsed input key
type Key uint16

// Key constants - designed for expansion
const (
	KeyNone Key = iota
	KeyRune     // Printable character (check Event.Rune)

	// Control keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBacktab // Shift+Tab
	KeyBackspace
	KeyDelete

	// Navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Ctrl+letter (Ctrl+A = 0x01, Ctrl+Z = 0x1A)
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH // Often same as Backspace
	KeyCtrlI // Often same as Tab
	KeyCtrlJ // Often same as Enter
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM // Often same as Enter
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ

	// Ctrl+special
	KeyCtrlSpace
	KeyCtrlBackslash
	KeyCtrlBracketRight
	KeyCtrlCaret
	KeyCtrlUnderscore
)

// Modifier flags. Bit layout matches the xterm modifier parameter minus one
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << 0
	ModAlt   Modifier = 1 << 1
	ModCtrl  Modifier = 1 << 2
)

// String returns modifier names joined with '+'
func (m Modifier) String() string {
	s := ""
	if m&ModCtrl != 0 {
		s += "Ctrl+"
	}
	if m&ModAlt != 0 {
		s += "Alt+"
	}
	if m&ModShift != 0 {
		s += "Shift+"
	}
	if s == "" {
		return "None"
	}
	return s[:len(s)-1]
}

// escapeSequence maps an escape sequence to a key
// seq: bytes after the introducer (e.g., "A" for ESC [ A)
type escapeSequence struct {
	seq string
	key Key
	mod Modifier
	r   rune // for KeyRune entries (keypad)
}

// Known escape sequences (CSI sequences: ESC [ ...)
var csiSequences = []escapeSequence{
	// Arrow keys
	{seq: "A", key: KeyUp},
	{seq: "B", key: KeyDown},
	{seq: "C", key: KeyRight},
	{seq: "D", key: KeyLeft},
	{seq: "Z", key: KeyBacktab, mod: ModShift},

	// Navigation
	{seq: "H", key: KeyHome},
	{seq: "F", key: KeyEnd},
	{seq: "1~", key: KeyHome},
	{seq: "4~", key: KeyEnd},
	{seq: "5~", key: KeyPageUp},
	{seq: "6~", key: KeyPageDown},
	{seq: "2~", key: KeyInsert},
	{seq: "3~", key: KeyDelete},
	{seq: "7~", key: KeyHome},
	{seq: "8~", key: KeyEnd},

	// Function keys (xterm)
	{seq: "11~", key: KeyF1},
	{seq: "12~", key: KeyF2},
	{seq: "13~", key: KeyF3},
	{seq: "14~", key: KeyF4},
	{seq: "15~", key: KeyF5},
	{seq: "17~", key: KeyF6},
	{seq: "18~", key: KeyF7},
	{seq: "19~", key: KeyF8},
	{seq: "20~", key: KeyF9},
	{seq: "21~", key: KeyF10},
	{seq: "23~", key: KeyF11},
	{seq: "24~", key: KeyF12},

	// Function keys (linux console)
	{seq: "[A", key: KeyF1},
	{seq: "[B", key: KeyF2},
	{seq: "[C", key: KeyF3},
	{seq: "[D", key: KeyF4},
	{seq: "[E", key: KeyF5},
}

// csiModifiable are the final bytes that take "1;mod" in xterm's
// modified form (ESC [ 1 ; mod X); F1-F4 use P-S there
var csiModifiable = []escapeSequence{
	{seq: "A", key: KeyUp},
	{seq: "B", key: KeyDown},
	{seq: "C", key: KeyRight},
	{seq: "D", key: KeyLeft},
	{seq: "H", key: KeyHome},
	{seq: "F", key: KeyEnd},
	{seq: "P", key: KeyF1},
	{seq: "Q", key: KeyF2},
	{seq: "R", key: KeyF3},
	{seq: "S", key: KeyF4},
}

// SS3 sequences (ESC O ...)
var ss3Sequences = []escapeSequence{
	{seq: "A", key: KeyUp},
	{seq: "B", key: KeyDown},
	{seq: "C", key: KeyRight},
	{seq: "D", key: KeyLeft},
	{seq: "H", key: KeyHome},
	{seq: "F", key: KeyEnd},
	{seq: "P", key: KeyF1},
	{seq: "Q", key: KeyF2},
	{seq: "R", key: KeyF3},
	{seq: "S", key: KeyF4},

	// Numeric keypad (application mode)
	{seq: "M", key: KeyEnter},
	{seq: "X", key: KeyRune, r: '='},
	{seq: "j", key: KeyRune, r: '*'},
	{seq: "k", key: KeyRune, r: '+'},
	{seq: "l", key: KeyRune, r: ','},
	{seq: "m", key: KeyRune, r: '-'},
	{seq: "n", key: KeyRune, r: '.'},
	{seq: "o", key: KeyRune, r: '/'},
	{seq: "p", key: KeyRune, r: '0'},
	{seq: "q", key: KeyRune, r: '1'},
	{seq: "r", key: KeyRune, r: '2'},
	{seq: "s", key: KeyRune, r: '3'},
	{seq: "t", key: KeyRune, r: '4'},
	{seq: "u", key: KeyRune, r: '5'},
	{seq: "v", key: KeyRune, r: '6'},
	{seq: "w", key: KeyRune, r: '7'},
	{seq: "x", key: KeyRune, r: '8'},
	{seq: "y", key: KeyRune, r: '9'},
}

// xtermModifier decodes the modifier parameter (2-8) of a modified sequence
func xtermModifier(p int) Modifier {
	if p < 2 || p > 8 {
		return ModNone
	}
	return Modifier(p - 1)
}

// controlKeys maps C0 control bytes to keys
var controlKeys = [0x20]Key{
	0x00: KeyCtrlSpace, // Ctrl+Space or Ctrl+@
	0x01: KeyCtrlA,
	0x02: KeyCtrlB,
	0x03: KeyCtrlC,
	0x04: KeyCtrlD,
	0x05: KeyCtrlE,
	0x06: KeyCtrlF,
	0x07: KeyCtrlG,
	0x08: KeyBackspace, // Ctrl+H or Backspace
	0x09: KeyTab,
	0x0a: KeyEnter, // LF
	0x0b: KeyCtrlK,
	0x0c: KeyCtrlL,
	0x0d: KeyEnter, // CR
	0x0e: KeyCtrlN,
	0x0f: KeyCtrlO,
	0x10: KeyCtrlP,
	0x11: KeyCtrlQ,
	0x12: KeyCtrlR,
	0x13: KeyCtrlS,
	0x14: KeyCtrlT,
	0x15: KeyCtrlU,
	0x16: KeyCtrlV,
	0x17: KeyCtrlW,
	0x18: KeyCtrlX,
	0x19: KeyCtrlY,
	0x1a: KeyCtrlZ,
	0x1b: KeyEscape,
	0x1c: KeyCtrlBackslash,
	0x1d: KeyCtrlBracketRight,
	0x1e: KeyCtrlCaret,
	0x1f: KeyCtrlUnderscore,
}

// controlEvent maps a control character to its key event
func controlEvent(b byte) Event {
	if b == 0x7f {
		return Event{Type: EventKey, Key: KeyBackspace}
	}
	if b < 0x20 {
		return Event{Type: EventKey, Key: controlKeys[b]}
	}
	return Event{Type: EventKey, Key: KeyNone}
}
