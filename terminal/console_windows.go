//go:build windows

package terminal

import (
	"golang.org/x/sys/windows"
)

// consoleCaps lists the capabilities a legacy console serves through
// console calls
var consoleCaps = []Cap{
	CapClear, CapClearToEOL, CapClearToEOS,
	CapCursorPos, CapCursorUp, CapCursorDown, CapCursorLeft, CapCursorRight,
	CapCarriageReturn, CapShowCursor, CapHideCursor,
	CapAttrOff, CapBold, CapUnderline, CapReverse,
	CapSetFg, CapSetBg, CapResetFgBg,
	CapEnableAutoMargin, CapDisableAutoMargin, CapBell,
}

// consoleCapabilities returns the static table of a legacy console.
// Console attributes address 16 colors
func consoleCapabilities(mode ColorMode) *Capabilities {
	if mode == ColorModeAuto || mode > ColorMode16 {
		mode = ColorMode16
	}
	caps := &Capabilities{Term: "console", Mode: mode}
	for cp := range caps.handles {
		caps.handles[cp] = Handle{Cap: Cap(cp)}
	}
	for _, cp := range consoleCaps {
		caps.handles[cp] = Handle{Cap: cp, Source: SourceConsole}
	}
	if mode == ColorModeMono {
		caps.handles[CapSetFg] = Handle{Cap: CapSetFg}
		caps.handles[CapSetBg] = Handle{Cap: CapSetBg}
	}
	return caps
}

// Console character attribute bits
const (
	fgBlue      uint16 = 0x0001
	fgGreen     uint16 = 0x0002
	fgRed       uint16 = 0x0004
	fgIntensity uint16 = 0x0008
	bgShift            = 4
	lvbReverse  uint16 = 0x4000
	lvbUnder    uint16 = 0x8000
)

// consoleInvoker executes capabilities as console API calls
type consoleInvoker struct {
	out   windows.Handle
	caps  *Capabilities
	deflt uint16 // attributes at open
	attr  uint16
}

func newConsoleInvoker(out windows.Handle, caps *Capabilities) *consoleInvoker {
	ci := &consoleInvoker{out: out, caps: caps, deflt: fgRed | fgGreen | fgBlue}
	var info windows.ConsoleScreenBufferInfo
	if windows.GetConsoleScreenBufferInfo(out, &info) == nil {
		ci.deflt = info.Attributes &^ (lvbReverse | lvbUnder)
	}
	ci.attr = ci.deflt
	return ci
}

// ansiToConsole maps an ANSI palette index (red=1, blue=4) onto console
// color bits (blue=1, red=4)
func ansiToConsole(i int) uint16 {
	c := uint16(0)
	if i&1 != 0 {
		c |= fgRed
	}
	if i&2 != 0 {
		c |= fgGreen
	}
	if i&4 != 0 {
		c |= fgBlue
	}
	if i&8 != 0 {
		c |= fgIntensity
	}
	return c
}

func (ci *consoleInvoker) Invoke(cp Cap, params ...int) error {
	if !ci.caps.Supports(cp) {
		return nil
	}
	param := func(i, def int) int {
		if i < len(params) {
			return params[i]
		}
		return def
	}

	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(ci.out, &info); err != nil {
		return err
	}
	win := info.Window
	cur := info.CursorPosition
	width := int(info.Size.X)

	switch cp {
	case CapClear:
		home := windows.Coord{X: 0, Y: win.Top}
		rows := int(win.Bottom-win.Top) + 1
		if err := ci.fill(home, width*rows); err != nil {
			return err
		}
		return windows.SetConsoleCursorPosition(ci.out, home)

	case CapClearToEOL:
		return ci.fill(cur, width-int(cur.X))

	case CapClearToEOS:
		n := width - int(cur.X) + width*int(win.Bottom-cur.Y)
		return ci.fill(cur, n)

	case CapCursorPos:
		return ci.moveTo(win, int(win.Top)+param(0, 0), int(win.Left)+param(1, 0))
	case CapCursorUp:
		return ci.moveTo(win, int(cur.Y)-param(0, 1), int(cur.X))
	case CapCursorDown:
		return ci.moveTo(win, int(cur.Y)+param(0, 1), int(cur.X))
	case CapCursorLeft:
		return ci.moveTo(win, int(cur.Y), int(cur.X)-param(0, 1))
	case CapCursorRight:
		return ci.moveTo(win, int(cur.Y), int(cur.X)+param(0, 1))
	case CapCarriageReturn:
		return ci.moveTo(win, int(cur.Y), int(win.Left))

	case CapShowCursor, CapHideCursor:
		var ci2 windows.ConsoleCursorInfo
		if err := windows.GetConsoleCursorInfo(ci.out, &ci2); err != nil {
			return err
		}
		ci2.Visible = 0
		if cp == CapShowCursor {
			ci2.Visible = 1
		}
		return windows.SetConsoleCursorInfo(ci.out, &ci2)

	case CapAttrOff:
		ci.attr = ci.deflt
	case CapBold:
		ci.attr |= fgIntensity
	case CapUnderline:
		ci.attr |= lvbUnder
	case CapReverse:
		ci.attr |= lvbReverse
	case CapResetFgBg:
		ci.attr = ci.attr&^0xff | ci.deflt&0xff

	case CapSetFg, CapSetBg:
		if len(params) == 0 {
			return nil
		}
		idx := Color(params[0]).Downgrade(ci.caps.Mode).Index()
		if idx < 0 {
			return nil
		}
		c := ansiToConsole(idx)
		if cp == CapSetFg {
			ci.attr = ci.attr&^0x0f | c
		} else {
			ci.attr = ci.attr&^0xf0 | c<<bgShift
		}

	case CapEnableAutoMargin, CapDisableAutoMargin:
		var mode uint32
		if err := windows.GetConsoleMode(ci.out, &mode); err != nil {
			return err
		}
		if cp == CapEnableAutoMargin {
			mode |= windows.ENABLE_WRAP_AT_EOL_OUTPUT
		} else {
			mode &^= windows.ENABLE_WRAP_AT_EOL_OUTPUT
		}
		return windows.SetConsoleMode(ci.out, mode)

	case CapBell:
		return writeConsole(ci.out, "\a")
	}

	return windows.SetConsoleTextAttribute(ci.out, ci.effective())
}

// effective resolves reverse video, which legacy consoles only honor
// with the LVB grid flags enabled
func (ci *consoleInvoker) effective() uint16 {
	a := ci.attr
	if a&lvbReverse != 0 {
		fg, bg := a&0x0f, a&0xf0>>bgShift
		a = a&^(0xff|lvbReverse) | bg | fg<<bgShift
	}
	return a
}

func (ci *consoleInvoker) fill(at windows.Coord, n int) error {
	if n <= 0 {
		return nil
	}
	var written uint32
	if err := windows.FillConsoleOutputCharacter(ci.out, ' ', uint32(n), at, &written); err != nil {
		return err
	}
	return windows.FillConsoleOutputAttribute(ci.out, ci.effective(), uint32(n), at, &written)
}

func (ci *consoleInvoker) moveTo(win windows.SmallRect, row, col int) error {
	row = min(max(row, int(win.Top)), int(win.Bottom))
	col = min(max(col, int(win.Left)), int(win.Right))
	return windows.SetConsoleCursorPosition(ci.out, windows.Coord{X: int16(col), Y: int16(row)})
}

func (ci *consoleInvoker) WriteText(s string) error {
	return writeConsole(ci.out, s)
}
