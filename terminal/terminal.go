// @focus: #sys { term, io } #input { events }
package terminal

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/unicode/norm"
)

// CursorMode selects cursor visibility
type CursorMode uint8

const (
	CursorNormal CursorMode = iota
	CursorInvisible
)

// Terminal is an open terminal device. Reads are serialized by readMu,
// writes and Do by writeMu; a reader blocked waiting for input does not
// hold writeMu
type Terminal struct {
	cfg  Config
	log  *zap.Logger
	dev  device
	caps *Capabilities
	raw  *RawController

	guard   *Guard
	charset encoding.Encoding
	keymap  *Keymap

	readMu    sync.Mutex
	dec       *Decoder
	pending   []Event // console records
	lastInput time.Time
	flushed   bool // grace period already expired for buffered bytes
	eof       bool

	writeMu    sync.Mutex
	inv        Invoker
	buf        *seqInvoker // nil when inv acts on the device directly
	line       *lineEditor // active ReadLine
	mouse      MouseMode
	inScreen   bool
	cursor     CursorMode
	style      Style
	styleValid bool

	sigMu       sync.Mutex
	signals     []Event
	stopSignals func()

	interrupted atomic.Bool
	closed      atomic.Bool
	closeOnce   sync.Once
	closeErr    error
}

// Open acquires the terminal named by cfg (stdio or the controlling
// terminal by default) and prepares it. A nil cfg uses DefaultConfig.
// Errors are *OpenError
func Open(cfg *Config) (*Terminal, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	dev, err := openDevice(cfg)
	if err != nil {
		return nil, err
	}
	return newTerminal(dev, cfg)
}

func newTerminal(dev device, cfg *Config) (*Terminal, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("device", dev.name()))

	if err := acquireDevice(dev.id()); err != nil {
		dev.close()
		return nil, &OpenError{Device: dev.name(), Err: err}
	}

	t := &Terminal{
		cfg:    *cfg,
		log:    log,
		dev:    dev,
		raw:    newRawController(dev.mode(), log),
		dec:    NewDecoder(log),
		keymap: cfg.Keymap,
	}
	if t.cfg.EscapeDelay <= 0 {
		t.cfg.EscapeDelay = DefaultEscapeDelay
	}
	if t.keymap == nil {
		t.keymap = DefaultKeymap()
	}

	name := cfg.Charset
	if name == "" {
		name = localeCharset()
	}
	enc, ok := LookupCharset(name)
	if !ok {
		log.Debug("unsupported charset, using utf-8", zap.String("charset", name))
	}
	t.charset = enc
	t.dec.SetCharset(enc)

	t.caps = dev.capabilities(&t.cfg, log)
	t.inv = dev.invoker(t.caps, enc)
	t.buf, _ = t.inv.(*seqInvoker)

	if cfg.RawMode {
		g, err := t.raw.Enter(cfg.ModeConfig())
		if err != nil {
			t.abandon()
			return nil, &OpenError{Device: dev.name(), Err: err}
		}
		t.guard = g
	}

	if err := t.prepare(); err != nil {
		t.raw.Restore()
		t.abandon()
		return nil, &OpenError{Device: dev.name(), Err: err}
	}

	t.stopSignals = startSignals(t)
	log.Debug("terminal opened",
		zap.String("term", t.caps.Term),
		zap.Stringer("colors", t.caps.Mode),
		zap.Bool("raw", cfg.RawMode))
	return t, nil
}

// abandon releases the device after a failed open
func (t *Terminal) abandon() {
	releaseDevice(t.dev.id())
	t.dev.close()
}

// prepare emits the output modes requested by the config
func (t *Terminal) prepare() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.cfg.Keypad {
		t.inv.Invoke(CapEnterKeypad)
	}
	if t.cfg.BracketedPaste {
		t.inv.Invoke(CapPasteOn)
	}
	if t.cfg.Mouse {
		mode := MouseModeClick | MouseModeDrag
		if t.cfg.TrackMotion {
			mode |= MouseModeMotion
		}
		t.setMouseLocked(mode)
	}
	return t.flushLocked()
}

// Close restores the device mode and output state and releases the
// device. Idempotent; the mode is restored even when output fails
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		if t.stopSignals != nil {
			t.stopSignals()
		}

		// Wait for a blocked reader to observe the close
		t.dev.wake()
		t.readMu.Lock()
		defer t.readMu.Unlock()

		var errs []error
		if err := t.restoreOutput(); err != nil {
			errs = append(errs, err)
		}
		if err := t.raw.Restore(); err != nil {
			errs = append(errs, err)
		}
		releaseDevice(t.dev.id())
		if err := t.dev.close(); err != nil {
			errs = append(errs, err)
		}
		t.closeErr = errors.Join(errs...)
		t.log.Debug("terminal closed", zap.Error(t.closeErr))
	})
	return t.closeErr
}

func (t *Terminal) restoreOutput() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.line = nil
	if t.mouse != MouseModeNone {
		t.inv.Invoke(CapMouseOff)
		t.mouse = MouseModeNone
	}
	if t.cfg.BracketedPaste {
		t.inv.Invoke(CapPasteOff)
	}
	if t.cfg.Keypad {
		t.inv.Invoke(CapExitKeypad)
	}
	if t.styleValid && t.style != StyleDefault {
		t.inv.Invoke(CapAttrOff)
	}
	// Screens hide the cursor through Do
	if t.cursor != CursorNormal || t.inScreen {
		t.inv.Invoke(CapShowCursor)
	}
	if t.inScreen {
		t.inv.Invoke(CapEnableAutoMargin)
		t.inv.Invoke(CapExitCA)
		t.inScreen = false
	}
	return t.flushLocked()
}

// ReadEvent returns the next input event. A negative timeout blocks
// until input arrives; otherwise ErrTimeout is returned once timeout
// elapses with no event. Interrupt ends the wait with ErrInterrupted.
// io.EOF is returned once the device is exhausted
func (t *Terminal) ReadEvent(timeout time.Duration) (Event, error) {
	if t.closed.Load() {
		return Event{}, ErrClosed
	}
	t.readMu.Lock()
	defer t.readMu.Unlock()
	return t.readEventLocked(timeout)
}

func (t *Terminal) readEventLocked(timeout time.Duration) (Event, error) {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	polled := false
	for {
		if t.closed.Load() {
			return Event{}, ErrClosed
		}
		if t.interrupted.Swap(false) {
			return Event{}, ErrInterrupted
		}
		if ev, ok := t.takeSignal(); ok {
			return ev, nil
		}
		if ev, ok := t.dec.Next(); ok {
			return ev, nil
		}
		if len(t.pending) > 0 {
			ev := t.pending[0]
			t.pending = t.pending[1:]
			return ev, nil
		}

		wait := time.Duration(-1)
		if t.dec.Pending() && !t.flushed {
			delay := t.cfg.EscapeDelay
			if t.dec.InPaste() {
				delay = max(delay, DefaultPasteTimeout)
			}
			grace := delay - time.Since(t.lastInput)
			if grace <= 0 || t.eof {
				t.dec.Flush()
				t.flushed = true
				continue
			}
			wait = grace
		}
		if t.eof {
			return Event{}, io.EOF
		}
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				if polled {
					return Event{}, ErrTimeout
				}
				remaining = 0
			}
			if wait < 0 || remaining < wait {
				wait = remaining
			}
		}

		if err := t.Flush(); err != nil {
			return Event{}, err
		}
		res, err := t.dev.read(wait)
		polled = true
		if err != nil {
			if t.closed.Load() {
				return Event{}, ErrClosed
			}
			return Event{}, err
		}
		if len(res.data) > 0 {
			t.dec.Feed(res.data)
			t.lastInput = time.Now()
			t.flushed = false
		}
		t.pending = append(t.pending, res.events...)
		if res.eof {
			t.log.Debug("end of input")
			t.eof = true
		}
	}
}

// Interrupt makes a blocked or the next ReadEvent return ErrInterrupted
func (t *Terminal) Interrupt() {
	if t.closed.Load() {
		return
	}
	t.interrupted.Store(true)
	t.dev.wake()
}

// postSignal queues a signal-derived event and wakes the reader.
// Resize events coalesce to the latest size
func (t *Terminal) postSignal(ev Event) {
	t.sigMu.Lock()
	if ev.Type == EventResize {
		for i := range t.signals {
			if t.signals[i].Type == EventResize {
				t.signals[i] = ev
				t.sigMu.Unlock()
				t.dev.wake()
				return
			}
		}
	}
	t.signals = append(t.signals, ev)
	t.sigMu.Unlock()
	t.dev.wake()
}

func (t *Terminal) takeSignal() (Event, bool) {
	t.sigMu.Lock()
	defer t.sigMu.Unlock()
	if len(t.signals) == 0 {
		return Event{}, false
	}
	ev := t.signals[0]
	t.signals = t.signals[1:]
	return ev, true
}

// resized fetches the current size as a Resize event
func (t *Terminal) resized() Event {
	w, h := t.Size()
	return Event{Type: EventResize, Width: w, Height: h}
}

// Write prints p. While ReadLine is editing, the text appears above the
// edited line and the prompt is redrawn below it. Output is buffered
// until the next read or Flush unless FlushOnWrite is set
func (t *Terminal) Write(p []byte) (int, error) {
	if err := t.WriteString(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString is Write for strings
func (t *Terminal) WriteString(s string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	text := norm.NFC.String(s)
	if t.line == nil {
		if err := t.inv.WriteText(text); err != nil {
			return err
		}
		return t.autoFlushLocked()
	}

	// Above the edited line: erase it, print, then redraw the prompt
	if err := t.line.erase(t.inv); err != nil {
		return err
	}
	if err := t.inv.WriteText(text); err != nil {
		return err
	}
	if len(text) > 0 && text[len(text)-1] != '\n' {
		if err := t.inv.WriteText("\n"); err != nil {
			return err
		}
	}
	if err := t.line.render(t.inv); err != nil {
		return err
	}
	// The reader is blocked on input; nothing else would flush this
	return t.flushLocked()
}

// Flush sends buffered output to the device
func (t *Terminal) Flush() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.flushLocked()
}

func (t *Terminal) flushLocked() error {
	if t.buf == nil || len(t.buf.out) == 0 {
		return nil
	}
	err := t.dev.write(t.buf.out)
	t.buf.reset()
	return err
}

func (t *Terminal) autoFlushLocked() error {
	if t.cfg.FlushOnWrite {
		return t.flushLocked()
	}
	return nil
}

// Do runs fn as one atomic unit with respect to Write and other Do calls
func (t *Terminal) Do(fn func(Invoker) error) error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := fn(t.inv); err != nil {
		return err
	}
	return t.autoFlushLocked()
}

func (t *Terminal) invoke(cp Cap, params ...int) error {
	return t.Do(func(inv Invoker) error {
		return inv.Invoke(cp, params...)
	})
}

// ClearScreen clears the display and homes the cursor
func (t *Terminal) ClearScreen() error { return t.invoke(CapClear) }

// ClearToLineEnd erases from the cursor to the end of the line
func (t *Terminal) ClearToLineEnd() error { return t.invoke(CapClearToEOL) }

// ClearToScreenEnd erases from the cursor to the end of the display
func (t *Terminal) ClearToScreenEnd() error { return t.invoke(CapClearToEOS) }

func (t *Terminal) move(cp Cap, n int) error {
	if n <= 0 {
		return nil
	}
	return t.invoke(cp, n)
}

// MoveUp moves the cursor n rows up
func (t *Terminal) MoveUp(n int) error { return t.move(CapCursorUp, n) }

// MoveDown moves the cursor n rows down
func (t *Terminal) MoveDown(n int) error { return t.move(CapCursorDown, n) }

// MoveLeft moves the cursor n columns left
func (t *Terminal) MoveLeft(n int) error { return t.move(CapCursorLeft, n) }

// MoveRight moves the cursor n columns right
func (t *Terminal) MoveRight(n int) error { return t.move(CapCursorRight, n) }

// MoveToFirstColumn returns the carriage
func (t *Terminal) MoveToFirstColumn() error { return t.invoke(CapCarriageReturn) }

// MoveTo positions the cursor (0-indexed)
func (t *Terminal) MoveTo(x, y int) error { return t.invoke(CapCursorPos, y, x) }

// Bell rings the terminal bell
func (t *Terminal) Bell() error { return t.invoke(CapBell) }

// SetCursorMode shows or hides the cursor
func (t *Terminal) SetCursorMode(mode CursorMode) error {
	return t.Do(func(inv Invoker) error {
		t.cursor = mode
		if mode == CursorInvisible {
			return inv.Invoke(CapHideCursor)
		}
		return inv.Invoke(CapShowCursor)
	})
}

// SetStyle changes the rendition of subsequent text
func (t *Terminal) SetStyle(s Style) error {
	return t.Do(func(inv Invoker) error {
		if err := ApplyStyle(inv, t.style, s, t.styleValid); err != nil {
			return err
		}
		t.style = s
		t.styleValid = true
		return nil
	})
}

// ClearAttributes returns to the default rendition
func (t *Terminal) ClearAttributes() error {
	return t.Do(func(inv Invoker) error {
		t.style = StyleDefault
		t.styleValid = true
		return inv.Invoke(CapAttrOff)
	})
}

// WriteStyled writes text in style s, then restores the current style
func (t *Terminal) WriteStyled(s Style, text string) error {
	return t.Do(func(inv Invoker) error {
		if err := ApplyStyle(inv, t.style, s, t.styleValid); err != nil {
			return err
		}
		if err := inv.WriteText(norm.NFC.String(text)); err != nil {
			return err
		}
		return ApplyStyle(inv, s, t.style, t.styleValid)
	})
}

// EnterScreen switches to the alternate screen
func (t *Terminal) EnterScreen() error {
	return t.Do(func(inv Invoker) error {
		if t.inScreen {
			return nil
		}
		t.inScreen = true
		return inv.Invoke(CapEnterCA)
	})
}

// ExitScreen returns to the main screen
func (t *Terminal) ExitScreen() error {
	return t.Do(func(inv Invoker) error {
		if !t.inScreen {
			return nil
		}
		t.inScreen = false
		if err := inv.Invoke(CapEnableAutoMargin); err != nil {
			return err
		}
		return inv.Invoke(CapExitCA)
	})
}

// InScreen reports whether the alternate screen is active
func (t *Terminal) InScreen() bool {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.inScreen
}

// SetMouse selects the reported mouse events. Modes combine:
// MouseModeClick | MouseModeDrag
func (t *Terminal) SetMouse(mode MouseMode) error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.setMouseLocked(mode); err != nil {
		return err
	}
	return t.flushLocked()
}

func (t *Terminal) setMouseLocked(mode MouseMode) error {
	if mode == t.mouse {
		return nil
	}
	// Off clears every tracking mode, so lower modes are re-enabled after
	if err := t.inv.Invoke(CapMouseOff); err != nil {
		return err
	}
	t.mouse = mode
	if mode == MouseModeNone {
		return nil
	}
	if err := t.inv.Invoke(CapMouseOn); err != nil {
		return err
	}
	if mode&MouseModeDrag != 0 {
		if err := t.inv.Invoke(CapMouseDrag); err != nil {
			return err
		}
	}
	if mode&MouseModeMotion != 0 {
		return t.inv.Invoke(CapMouseMotion)
	}
	return nil
}

// Size returns the device dimensions; 80x24 when they cannot be queried
func (t *Terminal) Size() (width, height int) {
	w, h, err := t.dev.size()
	if err != nil || w <= 0 || h <= 0 {
		t.log.Debug("size query failed, assuming 80x24", zap.Error(err))
		return 80, 24
	}
	return w, h
}

// Capabilities returns the resolved capability table
func (t *Terminal) Capabilities() *Capabilities {
	return t.caps
}

// Raw returns the raw mode controller of the device
func (t *Terminal) Raw() *RawController {
	return t.raw
}

// Config returns the configuration the terminal was opened with
func (t *Terminal) Config() Config {
	return t.cfg
}

// Logger returns the terminal's logger
func (t *Terminal) Logger() *zap.Logger {
	return t.log
}
