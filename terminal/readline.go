// @focus: #sys { io } #input { line }
package terminal

import (
	"io"
	"strings"

	"github.com/lixenwraith/termkit/terminal/edit"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
)

// lineEditor draws one edited line: prompt, then the visible slice of the
// text, horizontally scrolled to keep the cursor in view
type lineEditor struct {
	prompt  string
	promptW int
	line    *edit.Line
	width   int
	caps    *Capabilities
}

func newLineEditor(prompt string, width int, caps *Capabilities) *lineEditor {
	return &lineEditor{
		prompt:  prompt,
		promptW: runewidth.StringWidth(prompt),
		line:    edit.NewLine(""),
		width:   width,
		caps:    caps,
	}
}

// viewport is the text area width; the last column stays free so the
// cursor never wraps
func (e *lineEditor) viewport() int {
	return max(e.width-e.promptW-1, 1)
}

// erase blanks the row and returns the carriage
func (e *lineEditor) erase(inv Invoker) error {
	if err := inv.Invoke(CapCarriageReturn); err != nil {
		return err
	}
	if e.caps.Supports(CapClearToEOL) {
		return inv.Invoke(CapClearToEOL)
	}
	if err := inv.WriteText(strings.Repeat(" ", max(e.width-1, 0))); err != nil {
		return err
	}
	return inv.Invoke(CapCarriageReturn)
}

// render redraws the row and places the cursor
func (e *lineEditor) render(inv Invoker) error {
	vw := e.viewport()
	e.line.AdjustScroll(vw)
	runes, col := e.line.Visible(vw)

	if err := inv.Invoke(CapCarriageReturn); err != nil {
		return err
	}
	if err := inv.WriteText(e.prompt + string(runes)); err != nil {
		return err
	}

	drawn := e.promptW + edit.Width(runes)
	if e.caps.Supports(CapClearToEOL) {
		if err := inv.Invoke(CapClearToEOL); err != nil {
			return err
		}
	} else if pad := e.width - 1 - drawn; pad > 0 {
		if err := inv.WriteText(strings.Repeat(" ", pad)); err != nil {
			return err
		}
		drawn += pad
	}

	target := e.promptW + col
	if drawn == target {
		return nil
	}
	if e.caps.Supports(CapCursorLeft) {
		return inv.Invoke(CapCursorLeft, drawn-target)
	}

	// Without cursor motion, redraw up to the cursor
	k := 0
	for k < len(runes) && edit.Width(runes[:k]) < col {
		k++
	}
	if err := inv.Invoke(CapCarriageReturn); err != nil {
		return err
	}
	return inv.WriteText(e.prompt + string(runes[:k]))
}

// finish leaves the cursor at the start of the next row
func (e *lineEditor) finish(inv Invoker, suffix string) error {
	e.line.MoveToEnd()
	if err := e.render(inv); err != nil {
		return err
	}
	return inv.WriteText(suffix + "\r\n")
}

// ReadLine reads one line with editing. hist may be nil; an accepted
// non-empty line is added to it. Returns io.EOF on end of input at an
// empty line and ErrInterrupted on Ctrl-C or Interrupt. Raw mode is
// entered for the duration if the terminal is not already raw
func (t *Terminal) ReadLine(prompt string, hist *edit.History) (string, error) {
	if t.closed.Load() {
		return "", ErrClosed
	}
	t.readMu.Lock()
	defer t.readMu.Unlock()

	cfg := t.cfg.ModeConfig()
	cfg.Echo = false
	g, err := t.raw.Enter(cfg)
	if err != nil {
		return "", err
	}
	defer g.Release()

	if hist != nil {
		defer hist.Reset()
	}

	w, _ := t.Size()
	e := newLineEditor(prompt, w, t.caps)

	t.writeMu.Lock()
	t.line = e
	err = e.render(t.inv)
	t.writeMu.Unlock()
	if err != nil {
		t.endLine(nil, "")
		return "", err
	}

	for {
		ev, err := t.readEventLocked(-1)
		if err != nil {
			if err == io.EOF && e.line.Len() > 0 {
				// Input ended mid-line: hand back what was typed
				value := e.line.Value()
				t.endLine(e, "")
				return value, nil
			}
			t.endLine(e, "")
			return "", err
		}

		done, value, err := t.lineEvent(e, ev, hist)
		if done {
			return value, err
		}

		t.writeMu.Lock()
		err = e.render(t.inv)
		t.writeMu.Unlock()
		if err != nil {
			t.endLine(nil, "")
			return "", err
		}
	}
}

// endLine detaches the editor, optionally moving past the edited row
func (t *Terminal) endLine(e *lineEditor, suffix string) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.line = nil
	if e != nil {
		if err := e.finish(t.inv, suffix); err != nil {
			t.log.Debug("line finish failed", zap.Error(err))
		}
	}
	t.flushLocked()
}

// lineEvent applies one event. done reports that ReadLine returns
func (t *Terminal) lineEvent(e *lineEditor, ev Event, hist *edit.History) (done bool, value string, err error) {
	l := e.line

	switch ev.Type {
	case EventResize:
		t.writeMu.Lock()
		e.width = ev.Width
		t.writeMu.Unlock()
		return false, "", nil

	case EventSignal:
		if ev.Signal == SignalInterrupt {
			t.endLine(e, "^C")
			return true, "", ErrInterrupted
		}
		return false, "", nil

	case EventPaste:
		l.InsertString(pasteText(ev.Text))
		return false, "", nil

	case EventKey:
	default:
		return false, "", nil
	}

	action := t.keymap.Lookup(ev)
	if action == ActionNone {
		if ev.IsRune() && ev.Modifiers&(ModAlt|ModCtrl) == 0 {
			l.Insert(ev.Rune)
		}
		return false, "", nil
	}

	switch action {
	case ActionAccept:
		value := l.Value()
		t.endLine(e, "")
		if hist != nil {
			hist.Add(value)
		}
		return true, value, nil

	case ActionInterrupt:
		t.endLine(e, "^C")
		return true, "", ErrInterrupted

	case ActionEOF:
		if l.Len() == 0 {
			t.endLine(e, "")
			return true, "", io.EOF
		}
		l.DeleteForward()

	case ActionBackwardChar:
		l.MoveLeft()
	case ActionForwardChar:
		l.MoveRight()
	case ActionBackwardWord:
		l.MoveWordLeft()
	case ActionForwardWord:
		l.MoveWordRight()
	case ActionLineStart:
		l.MoveToStart()
	case ActionLineEnd:
		l.MoveToEnd()
	case ActionDeleteBackward:
		l.DeleteBackward()
	case ActionDeleteForward:
		l.DeleteForward()
	case ActionDeleteWordBackward:
		l.DeleteWordBackward()
	case ActionDeleteWordForward:
		l.DeleteWordForward()
	case ActionKillToEnd:
		l.DeleteToEnd()
	case ActionKillToStart:
		l.DeleteToStart()
	case ActionTranspose:
		l.TransposeChars()

	case ActionHistoryPrev, ActionHistoryNext:
		if hist == nil {
			break
		}
		var s string
		var ok bool
		if action == ActionHistoryPrev {
			s, ok = hist.Prev(l.Value())
		} else {
			s, ok = hist.Next()
		}
		if ok {
			l.SetValue(s)
		} else {
			t.Bell()
		}

	case ActionClearScreen:
		t.ClearScreen()
	}
	return false, "", nil
}

// pasteText flattens pasted text onto one line
func pasteText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}
