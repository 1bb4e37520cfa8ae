// @lixen: #focus{sys[term,caps,ansi]}
package terminal

// Built-in ANSI (ECMA-48 / VT100 + xterm private modes) capability set.
// Serves unknown terminal types and capabilities missing from an entry
var builtinANSI = [capCount]string{
	CapClear:             "\x1b[H\x1b[2J",
	CapClearToEOL:        "\x1b[K",
	CapClearToEOS:        "\x1b[J",
	CapCursorPos:         "\x1b[%i%p1%d;%p2%dH",
	CapCursorUp:          "\x1b[%p1%dA",
	CapCursorDown:        "\x1b[%p1%dB",
	CapCursorLeft:        "\x1b[%p1%dD",
	CapCursorRight:       "\x1b[%p1%dC",
	CapCarriageReturn:    "\r",
	CapShowCursor:        "\x1b[?25h",
	CapHideCursor:        "\x1b[?25l",
	CapEnterCA:           "\x1b[?1049h",
	CapExitCA:            "\x1b[?1049l",
	CapEnterKeypad:       "\x1b[?1h\x1b=",
	CapExitKeypad:        "\x1b[?1l\x1b>",
	CapAttrOff:           "\x1b[0m",
	CapBold:              "\x1b[1m",
	CapDim:               "\x1b[2m",
	CapItalic:            "\x1b[3m",
	CapUnderline:         "\x1b[4m",
	CapBlink:             "\x1b[5m",
	CapReverse:           "\x1b[7m",
	CapSetFg:             "\x1b[%?%p1%{8}%<%t3%p1%d%e%p1%{16}%<%t9%p1%{8}%-%d%e38;5;%p1%d%;m",
	CapSetBg:             "\x1b[%?%p1%{8}%<%t4%p1%d%e%p1%{16}%<%t10%p1%{8}%-%d%e48;5;%p1%d%;m",
	CapResetFgBg:         "\x1b[39;49m",
	CapEnableAutoMargin:  "\x1b[?7h",
	CapDisableAutoMargin: "\x1b[?7l",
	CapBell:              "\a",
	CapMouseOn:           "\x1b[?1000h\x1b[?1006h",
	CapMouseDrag:         "\x1b[?1002h",
	CapMouseMotion:       "\x1b[?1003h",
	CapMouseOff:          "\x1b[?1003l\x1b[?1002l\x1b[?1000l\x1b[?1006l",
	CapPasteOn:           "\x1b[?2004h",
	CapPasteOff:          "\x1b[?2004l",
}

const (
	builtinFgRGB = "\x1b[38;2;%p1%d;%p2%d;%p3%dm"
	builtinBgRGB = "\x1b[48;2;%p1%d;%p2%d;%p3%dm"
)

// builtinASCII is the set for TERM=dumb: plain control characters only
var builtinASCII = [capCount]string{
	CapCarriageReturn: "\r",
	CapBell:           "\a",
}

// resetSequence restores a sane rendition without any lookup. Used where
// the capability table may not be available (panic recovery)
const resetSequence = "\x1b[?1003l\x1b[?1002l\x1b[?1000l\x1b[?1006l" + // mouse off
	"\x1b[?2004l" + // paste off
	"\x1b[?25h" + // cursor visible
	"\x1b[?1049l" + // main screen
	"\x1b[0m" + // attributes off
	"\x1b[?7h" // auto-wrap on
