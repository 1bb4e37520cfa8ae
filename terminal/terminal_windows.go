//go:build windows

package terminal

import (
	"encoding/binary"
	"syscall"
	"time"
	"unicode/utf16"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
	"golang.org/x/text/encoding"
)

var (
	k32                   = syscall.NewLazyDLL("kernel32.dll")
	procReadConsoleInputW = k32.NewProc("ReadConsoleInputW")
)

const waitTimeout = 0x102

// consoleDevice is a console input/output handle pair plus an auto-reset
// event used to wake a blocked wait
type consoleDevice struct {
	in     windows.Handle
	out    windows.Handle
	cancel windows.Handle
	mouse  bool

	vt      bool // virtual terminal processing enabled on out
	outMode uint32

	surrogate rune
	lastBtns  uint32
}

func openDevice(cfg *Config) (device, error) {
	if cfg.Device != "" && cfg.Device != "CONIN$" {
		return nil, &OpenError{Device: cfg.Device, Err: ErrUnsupported}
	}

	in, err := openConsoleHandle("CONIN$")
	if err != nil {
		return nil, &OpenError{Device: "CONIN$", Err: err}
	}
	out, err := openConsoleHandle("CONOUT$")
	if err != nil {
		windows.CloseHandle(in)
		return nil, &OpenError{Device: "CONOUT$", Err: err}
	}

	var mode uint32
	if err := windows.GetConsoleMode(in, &mode); err != nil {
		windows.CloseHandle(in)
		windows.CloseHandle(out)
		return nil, &OpenError{Device: "CONIN$", Err: ErrNotTerminal}
	}

	cancel, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		windows.CloseHandle(in)
		windows.CloseHandle(out)
		return nil, &OpenError{Device: "CONIN$", Err: err}
	}

	d := &consoleDevice{in: in, out: out, cancel: cancel, mouse: cfg.Mouse}
	if err := windows.GetConsoleMode(out, &d.outMode); err == nil {
		if windows.SetConsoleMode(out, d.outMode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil {
			d.vt = true
		}
	}
	return d, nil
}

func openConsoleHandle(name string) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	return windows.CreateFile(p, windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil, windows.OPEN_EXISTING, 0, 0)
}

func (d *consoleDevice) id() string   { return "CONIN$" }
func (d *consoleDevice) name() string { return "CONIN$" }

func (d *consoleDevice) mode() modeDevice {
	return consoleMode{h: d.in, mouse: d.mouse}
}

func (d *consoleDevice) size() (int, int, error) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(d.out, &info); err != nil {
		return 0, 0, err
	}
	return int(info.Window.Right-info.Window.Left) + 1, int(info.Window.Bottom-info.Window.Top) + 1, nil
}

func (d *consoleDevice) capabilities(cfg *Config, log *zap.Logger) *Capabilities {
	if d.vt {
		mode := cfg.ColorMode
		if mode == ColorModeAuto {
			mode = DetectColorMode()
		}
		log.Debug("console virtual terminal processing enabled")
		return BuiltinCapabilities(mode)
	}
	log.Debug("legacy console, using console calls")
	return consoleCapabilities(cfg.ColorMode)
}

func (d *consoleDevice) invoker(caps *Capabilities, _ encoding.Encoding) Invoker {
	if d.vt {
		// Output goes through WriteConsoleW, which takes UTF-16 directly
		return &seqInvoker{caps: caps, out: make([]byte, 0, 4096)}
	}
	return newConsoleInvoker(d.out, caps)
}

func (d *consoleDevice) write(p []byte) error {
	return writeConsole(d.out, string(p))
}

func writeConsole(h windows.Handle, s string) error {
	buf := utf16.Encode([]rune(s))
	for len(buf) > 0 {
		var n uint32
		if err := windows.WriteConsole(h, &buf[0], uint32(len(buf)), &n, nil); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func (d *consoleDevice) read(timeout time.Duration) (readResult, error) {
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32((timeout + time.Millisecond - 1) / time.Millisecond)
	}

	ev, err := windows.WaitForMultipleObjects([]windows.Handle{d.cancel, d.in}, false, ms)
	switch ev {
	case windows.WAIT_OBJECT_0:
		return readResult{woke: true}, nil
	case windows.WAIT_OBJECT_0 + 1:
		return d.readRecords()
	case waitTimeout:
		return readResult{}, nil
	}
	return readResult{}, err
}

// inputRecord is INPUT_RECORD: a type tag and a 16-byte union
type inputRecord struct {
	typ  uint16
	_    uint16
	data [16]byte
}

const (
	keyEvent    uint16 = 1
	mouseEvent  uint16 = 2
	resizeEvent uint16 = 4
)

func (d *consoleDevice) readRecords() (readResult, error) {
	var recs [16]inputRecord
	var n uint32
	rv, _, err := procReadConsoleInputW.Call(
		uintptr(d.in),
		uintptr(unsafe.Pointer(&recs[0])),
		uintptr(len(recs)),
		uintptr(unsafe.Pointer(&n)))
	if rv == 0 {
		return readResult{}, err
	}

	var res readResult
	for i := range recs[:n] {
		rec := &recs[i]
		switch rec.typ {
		case keyEvent:
			res.events = d.appendKey(res.events, rec.data[:])
		case mouseEvent:
			if ev, ok := d.mouseRecord(rec.data[:]); ok {
				res.events = append(res.events, ev)
			}
		case resizeEvent:
			w, h, err := d.size()
			if err == nil {
				res.events = append(res.events, Event{Type: EventResize, Width: w, Height: h})
			}
		}
	}
	return res, nil
}

// KEY_EVENT_RECORD field offsets
const (
	keyDown   = 0
	keyRepeat = 4
	keyVK     = 6
	keyChar   = 10
	keyMods   = 12
)

// Control key state bits
const (
	modRightAlt  = 0x0001
	modLeftAlt   = 0x0002
	modRightCtrl = 0x0004
	modLeftCtrl  = 0x0008
	modShift     = 0x0010
)

func consoleModifiers(state uint32) Modifier {
	var m Modifier
	if state&modShift != 0 {
		m |= ModShift
	}
	if state&(modLeftCtrl|modRightCtrl) != 0 {
		m |= ModCtrl
	}
	if state&(modLeftAlt|modRightAlt) != 0 {
		m |= ModAlt
	}
	return m
}

func (d *consoleDevice) appendKey(evs []Event, data []byte) []Event {
	if binary.LittleEndian.Uint32(data[keyDown:]) == 0 {
		return evs
	}
	repeat := int(binary.LittleEndian.Uint16(data[keyRepeat:]))
	if repeat < 1 {
		repeat = 1
	}
	vk := binary.LittleEndian.Uint16(data[keyVK:])
	ch := rune(binary.LittleEndian.Uint16(data[keyChar:]))
	state := binary.LittleEndian.Uint32(data[keyMods:])
	mods := consoleModifiers(state)

	var ev Event
	switch {
	case ch == 0:
		k, ok := vkKeys[vk]
		if !ok {
			return evs
		}
		ev = Event{Type: EventKey, Key: k, Modifiers: mods}

	case utf16.IsSurrogate(ch):
		if ch < 0xdc00 {
			d.surrogate = ch
			return evs
		}
		r := utf16.DecodeRune(d.surrogate, ch)
		d.surrogate = 0
		ev = Event{Type: EventKey, Key: KeyRune, Rune: r}

	case ch < 0x20 || ch == 0x7f:
		ev = controlEvent(byte(ch))
		if ev.Key == KeyTab && mods&ModShift != 0 {
			ev.Key = KeyBacktab
		} else if mods&ModAlt != 0 {
			ev.Modifiers = ModAlt
		}

	default:
		// AltGr arrives as Ctrl+RightAlt and has already produced ch
		if state&(modLeftCtrl|modRightAlt) == modLeftCtrl|modRightAlt {
			mods &^= ModCtrl | ModAlt
		}
		ev = Event{Type: EventKey, Key: KeyRune, Rune: ch, Modifiers: mods &^ (ModShift | ModCtrl)}
	}

	for range repeat {
		evs = append(evs, ev)
	}
	return evs
}

// MOUSE_EVENT_RECORD field offsets
const (
	mouseX     = 0
	mouseY     = 2
	mouseBtns  = 4
	mouseMods  = 8
	mouseFlags = 12
)

const (
	mouseMoved   = 0x1
	mouseWheeled = 0x4
)

var consoleButtons = [...]struct {
	bit uint32
	btn MouseButton
}{
	{0x1, MouseBtnLeft},
	{0x2, MouseBtnRight},
	{0x4, MouseBtnMiddle},
}

func (d *consoleDevice) mouseRecord(data []byte) (Event, bool) {
	x := int(int16(binary.LittleEndian.Uint16(data[mouseX:])))
	y := int(int16(binary.LittleEndian.Uint16(data[mouseY:])))
	btns := binary.LittleEndian.Uint32(data[mouseBtns:])
	mods := consoleModifiers(binary.LittleEndian.Uint32(data[mouseMods:]))
	flags := binary.LittleEndian.Uint32(data[mouseFlags:])

	// Records carry buffer coordinates
	var info windows.ConsoleScreenBufferInfo
	if windows.GetConsoleScreenBufferInfo(d.out, &info) == nil {
		x -= int(info.Window.Left)
		y -= int(info.Window.Top)
	}

	ev := Event{Type: EventMouse, MouseX: x, MouseY: y, Modifiers: mods}
	switch {
	case flags&mouseWheeled != 0:
		ev.MouseAction = MouseActionPress
		ev.MouseBtn = MouseBtnWheelDown
		if int32(btns) > 0 {
			ev.MouseBtn = MouseBtnWheelUp
		}
		return ev, true

	case flags&mouseMoved != 0:
		ev.MouseAction = MouseActionMove
		for _, b := range consoleButtons {
			if btns&b.bit != 0 {
				ev.MouseAction = MouseActionDrag
				ev.MouseBtn = b.btn
				break
			}
		}
		return ev, true
	}

	changed := btns ^ d.lastBtns
	d.lastBtns = btns
	for _, b := range consoleButtons {
		if changed&b.bit == 0 {
			continue
		}
		ev.MouseBtn = b.btn
		ev.MouseAction = MouseActionRelease
		if btns&b.bit != 0 {
			ev.MouseAction = MouseActionPress
		}
		return ev, true
	}
	return Event{}, false
}

// Virtual key codes of keys without a character
var vkKeys = map[uint16]Key{
	0x08: KeyBackspace,
	0x09: KeyTab,
	0x0d: KeyEnter,
	0x1b: KeyEscape,
	0x21: KeyPageUp,
	0x22: KeyPageDown,
	0x23: KeyEnd,
	0x24: KeyHome,
	0x25: KeyLeft,
	0x26: KeyUp,
	0x27: KeyRight,
	0x28: KeyDown,
	0x2d: KeyInsert,
	0x2e: KeyDelete,
	0x70: KeyF1,
	0x71: KeyF2,
	0x72: KeyF3,
	0x73: KeyF4,
	0x74: KeyF5,
	0x75: KeyF6,
	0x76: KeyF7,
	0x77: KeyF8,
	0x78: KeyF9,
	0x79: KeyF10,
	0x7a: KeyF11,
	0x7b: KeyF12,
}

func (d *consoleDevice) wake() {
	windows.SetEvent(d.cancel)
}

func (d *consoleDevice) close() error {
	if d.vt {
		windows.SetConsoleMode(d.out, d.outMode)
	}
	windows.CloseHandle(d.cancel)
	windows.CloseHandle(d.out)
	return windows.CloseHandle(d.in)
}
