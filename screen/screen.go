// @focus: #sys { render } #screen { buffer }
// Package screen provides a full-screen cell grid rendered to a terminal
// by diffing against a shadow of what the terminal shows.
//
// Cells are written with PutCell and PutString; Render sends the changed
// runs. Wide characters occupy two cells and are never split. A resize
// keeps the overlapping content and makes the next Render redraw fully.
package screen

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lixenwraith/termkit/terminal"
)

// Target receives render output. *terminal.Terminal implements it.
// Flush sends what Do buffered to the device
type Target interface {
	Do(fn func(terminal.Invoker) error) error
	Flush() error
}

// Option configures a Screen
type Option func(*Screen)

// WithOverflow sets the policy for wide characters at the last column
func WithOverflow(o Overflow) Option {
	return func(s *Screen) { s.overflow = o }
}

// WithTabWidth sets the tab stop interval of PutString
func WithTabWidth(n int) Option {
	return func(s *Screen) {
		if n > 0 {
			s.tabWidth = n
		}
	}
}

// WithLogger sets the logger for render failures
func WithLogger(log *zap.Logger) Option {
	return func(s *Screen) {
		if log != nil {
			s.log = log
		}
	}
}

// Screen is a cell grid plus the shadow of the terminal's contents
type Screen struct {
	mu     sync.Mutex
	target Target
	term   *terminal.Terminal // set by Open
	log    *zap.Logger

	back  *grid
	front *grid // nil: terminal contents unknown

	overflow Overflow
	tabWidth int

	cursorX, cursorY int
	cursorVisible    bool

	// Cursor state last sent to the terminal
	shownX, shownY int
	shownVisible   bool
	shownValid     bool
}

// New creates a blank width x height screen rendering to target
func New(target Target, width, height int, opts ...Option) *Screen {
	s := &Screen{
		target:   target,
		log:      zap.NewNop(),
		back:     newGrid(max(width, 0), max(height, 0)),
		tabWidth: DefaultTabWidth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a screen bound to t: switches to the alternate screen,
// disables auto-margin and sizes the grid from the terminal. Close
// undoes this
func Open(t *terminal.Terminal, opts ...Option) (*Screen, error) {
	if err := t.EnterScreen(); err != nil {
		return nil, err
	}
	if err := t.Do(func(inv terminal.Invoker) error {
		return inv.Invoke(terminal.CapDisableAutoMargin)
	}); err != nil {
		t.ExitScreen()
		return nil, err
	}
	if err := t.Flush(); err != nil {
		t.ExitScreen()
		return nil, err
	}

	w, h := t.Size()
	s := New(t, w, h, append([]Option{WithLogger(t.Logger())}, opts...)...)
	s.term = t
	t.Logger().Debug("screen opened", zap.Int("width", w), zap.Int("height", h))
	return s, nil
}

// HandleEvent follows terminal resizes. Returns true when the event was
// consumed
func (s *Screen) HandleEvent(ev terminal.Event) bool {
	if ev.Type != terminal.EventResize {
		return false
	}
	s.Resize(ev.Width, ev.Height)
	return true
}

// SetCursor places the logical cursor, shown after the next Render
func (s *Screen) SetCursor(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.back.in(x, y) {
		return ErrOutOfBounds
	}
	s.cursorX, s.cursorY = x, y
	return nil
}

// Cursor returns the logical cursor position
func (s *Screen) Cursor() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorX, s.cursorY
}

// SetCursorVisible shows or hides the cursor from the next Render on
func (s *Screen) SetCursorVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorVisible = visible
}

// Invalidate forgets what the terminal shows; the next Render clears and
// redraws fully
func (s *Screen) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

func (s *Screen) invalidateLocked() {
	s.front = nil
	s.shownValid = false
}

// Close restores the terminal state changed by Open. Screens created
// with New have nothing to restore
func (s *Screen) Close() error {
	s.mu.Lock()
	t := s.term
	s.term = nil
	s.mu.Unlock()
	if t == nil {
		return nil
	}

	err := t.Do(func(inv terminal.Invoker) error {
		if err := inv.Invoke(terminal.CapAttrOff); err != nil {
			return err
		}
		if err := inv.Invoke(terminal.CapEnableAutoMargin); err != nil {
			return err
		}
		return inv.Invoke(terminal.CapShowCursor)
	})
	if xerr := t.ExitScreen(); err == nil {
		err = xerr
	}
	if ferr := t.Flush(); err == nil {
		err = ferr
	}
	return err
}
