// Package termtest provides an in-memory render target that records
// capability invocations and emulates their effect on a character grid
package termtest

import (
	"errors"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/termkit/terminal"
)

// ErrInjected is returned by invocations after FailAfter triggers
var ErrInjected = errors.New("injected failure")

// Call is one recorded invocation or text write
type Call struct {
	Cap    terminal.Cap
	Params []int
	Text   string
	IsText bool
}

// Recorder implements Do, Flush and terminal.Invoker over an emulated grid
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	width, height int
	grid          [][]rune
	x, y          int // x == width while a wrap is pending
	visible       bool
	autoMargin    bool

	failAfter int // invocations before failing; <0 never
	count     int
	flushes   int
	flushErr  error
}

// NewRecorder creates a recorder with a blank width x height grid
func NewRecorder(width, height int) *Recorder {
	r := &Recorder{visible: true, autoMargin: true, failAfter: -1}
	r.Resize(width, height)
	return r
}

// Resize changes the emulated grid, keeping the overlapping content
func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		for x := range grid[y] {
			grid[y][x] = ' '
			if y < r.height && x < r.width {
				grid[y][x] = r.grid[y][x]
			}
		}
	}
	r.grid = grid
	r.width, r.height = width, height
	r.x = min(r.x, max(width-1, 0))
	r.y = min(r.y, max(height-1, 0))
}

// Do runs fn with the recorder as invoker
func (r *Recorder) Do(fn func(terminal.Invoker) error) error {
	return fn(r)
}

// Flush counts a flush and returns the error set by FailFlush
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return r.flushErr
}

// FailFlush makes Flush return err; nil clears it
func (r *Recorder) FailFlush(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushErr = err
}

// Flushes returns how many times Flush was called
func (r *Recorder) Flushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

// FailAfter makes every invocation after the next n fail with ErrInjected.
// A negative n disables failures
func (r *Recorder) FailAfter(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAfter = n
	r.count = 0
}

func (r *Recorder) fail() bool {
	if r.failAfter < 0 {
		return false
	}
	r.count++
	return r.count > r.failAfter
}

// Invoke records cp and applies cursor and erase operations to the grid
func (r *Recorder) Invoke(cp terminal.Cap, params ...int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return ErrInjected
	}
	r.calls = append(r.calls, Call{Cap: cp, Params: append([]int(nil), params...)})

	param := func(i, def int) int {
		if i < len(params) {
			return params[i]
		}
		return def
	}

	switch cp {
	case terminal.CapClear:
		for y := range r.grid {
			r.blank(y, 0)
		}
		r.x, r.y = 0, 0
	case terminal.CapClearToEOL:
		r.blank(r.y, r.x)
	case terminal.CapClearToEOS:
		r.blank(r.y, r.x)
		for y := r.y + 1; y < r.height; y++ {
			r.blank(y, 0)
		}
	case terminal.CapCursorPos:
		r.y, r.x = param(0, 0), param(1, 0)
	case terminal.CapCursorUp:
		r.y -= param(0, 1)
	case terminal.CapCursorDown:
		r.y += param(0, 1)
	case terminal.CapCursorLeft:
		r.x -= param(0, 1)
	case terminal.CapCursorRight:
		r.x += param(0, 1)
	case terminal.CapCarriageReturn:
		r.x = 0
	case terminal.CapShowCursor:
		r.visible = true
	case terminal.CapHideCursor:
		r.visible = false
	case terminal.CapEnableAutoMargin:
		r.autoMargin = true
	case terminal.CapDisableAutoMargin:
		r.autoMargin = false
	}
	r.x = min(max(r.x, 0), max(r.width-1, 0))
	r.y = min(max(r.y, 0), max(r.height-1, 0))
	return nil
}

func (r *Recorder) blank(y, from int) {
	if y < 0 || y >= r.height {
		return
	}
	for x := max(from, 0); x < r.width; x++ {
		r.grid[y][x] = ' '
	}
}

// WriteText records s and prints it at the cursor. Wide characters take
// two columns; the second holds 0
func (r *Recorder) WriteText(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return ErrInjected
	}
	r.calls = append(r.calls, Call{Text: s, IsText: true})

	for _, c := range s {
		switch c {
		case '\r':
			r.x = 0
			continue
		case '\n':
			r.x = 0
			if r.y < r.height-1 {
				r.y++
			}
			continue
		}
		w := runewidth.RuneWidth(c)
		if w == 0 {
			continue
		}
		if r.x+w > r.width {
			if r.autoMargin {
				r.x = 0
				if r.y < r.height-1 {
					r.y++
				}
			} else {
				// Without auto-margin the last column is overwritten
				r.x = max(r.width-w, 0)
			}
		}
		if r.y < r.height {
			r.grid[r.y][r.x] = c
			if w == 2 && r.x+1 < r.width {
				r.grid[r.y][r.x+1] = 0
			}
		}
		// x may reach width: the wrap is pending until the next character
		r.x += w
	}
	return nil
}

// Calls returns the recorded invocations
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many times cp was invoked
func (r *Recorder) Count(cp terminal.Cap) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if !c.IsText && c.Cap == cp {
			n++
		}
	}
	return n
}

// Text returns all written text concatenated
func (r *Recorder) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, c := range r.calls {
		if c.IsText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// Reset forgets recorded calls, keeping the grid
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Row returns row y of the grid with wide-character padding removed
func (r *Recorder) Row(y int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if y < 0 || y >= r.height {
		return ""
	}
	var b strings.Builder
	for _, c := range r.grid[y] {
		if c != 0 {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Cursor returns the emulated cursor position and visibility
func (r *Recorder) Cursor() (x, y int, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return min(r.x, max(r.width-1, 0)), r.y, r.visible
}
