// @focus: #sys { render } #screen { diff }
package screen

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/termkit/terminal"
)

// Render sends the cells that differ from the shadow grid, places the
// cursor and flushes the target. After a resize or Invalidate the display
// is cleared and everything non-blank is drawn. A render with no changes
// emits nothing. On failure the shadow is invalidated and a *RenderError
// returned
func (s *Screen) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := "render"
	err := s.target.Do(s.render)
	if err == nil {
		op = "flush"
		err = s.target.Flush()
	}
	if err != nil {
		s.invalidateLocked()
		s.log.Warn("render failed, next render redraws fully", zap.String("op", op), zap.Error(err))
		return &RenderError{Op: op, Err: err}
	}
	return nil
}

// renderer tracks the device state during one render
type renderer struct {
	inv        terminal.Invoker
	style      terminal.Style
	styleValid bool
	x, y       int
	posValid   bool // false after writing the last column or before the first move
	drawn      bool
}

func (s *Screen) render(inv terminal.Invoker) error {
	r := &renderer{inv: inv}
	g := s.back

	if s.front == nil || s.front.width != g.width || s.front.height != g.height {
		if err := inv.Invoke(terminal.CapAttrOff); err != nil {
			return err
		}
		if err := inv.Invoke(terminal.CapClear); err != nil {
			return err
		}
		// Cleared: the terminal shows blanks with the cursor home
		s.front = newGrid(g.width, g.height)
		s.shownValid = false
		r.styleValid = true
		r.x, r.y, r.posValid = 0, 0, true
		r.drawn = true
	}

	for y := 0; y < g.height; y++ {
		if err := s.renderRow(r, y); err != nil {
			return err
		}
	}

	if r.styleValid && r.style != terminal.StyleDefault {
		if err := inv.Invoke(terminal.CapAttrOff); err != nil {
			return err
		}
	}
	return s.placeCursor(r)
}

// renderRow emits each run of changed cells: one cursor move, then the
// cells with style changes coalesced
func (s *Screen) renderRow(r *renderer, y int) error {
	g, f := s.back, s.front
	x := 0
	for x < g.width {
		if g.at(x, y).equal(*f.at(x, y)) {
			x++
			continue
		}
		// A run never starts on the right half of a wide cell
		if g.at(x, y).cont && x > 0 {
			x--
		}

		if !r.posValid || r.x != x || r.y != y {
			if err := r.inv.Invoke(terminal.CapCursorPos, y, x); err != nil {
				return err
			}
			r.x, r.y, r.posValid = x, y, true
		}

		for x < g.width {
			b, fr := g.at(x, y), f.at(x, y)
			if b.equal(*fr) && !b.cont {
				break
			}
			if b.cont {
				// Drawn with its primary, or an orphan left by a resize
				*fr = *b
				x++
				continue
			}
			if err := r.put(b.Cell); err != nil {
				return err
			}
			w := b.Width()
			*fr = *b
			if w == 2 && x+1 < g.width {
				*f.at(x+1, y) = *g.at(x+1, y)
			}
			x += w
			r.x += w
			if r.x >= g.width {
				r.posValid = false
			}
		}
	}
	return nil
}

func (r *renderer) put(c Cell) error {
	if err := terminal.ApplyStyle(r.inv, r.style, c.Style, r.styleValid); err != nil {
		return err
	}
	r.style, r.styleValid = c.Style, true
	r.drawn = true
	return r.inv.WriteText(c.text())
}

// placeCursor moves the hardware cursor to the logical cursor. Nothing
// is emitted when no cell was drawn and the cursor state is unchanged
func (s *Screen) placeCursor(r *renderer) error {
	unchanged := s.shownValid &&
		s.shownVisible == s.cursorVisible &&
		(!s.cursorVisible || s.shownX == s.cursorX && s.shownY == s.cursorY)
	if unchanged && !r.drawn {
		return nil
	}

	if s.cursorVisible {
		if !r.posValid || r.x != s.cursorX || r.y != s.cursorY {
			if err := r.inv.Invoke(terminal.CapCursorPos, s.cursorY, s.cursorX); err != nil {
				return err
			}
		}
	}
	if !s.shownValid || s.shownVisible != s.cursorVisible {
		cp := terminal.CapHideCursor
		if s.cursorVisible {
			cp = terminal.CapShowCursor
		}
		if err := r.inv.Invoke(cp); err != nil {
			return err
		}
	}
	s.shownX, s.shownY = s.cursorX, s.cursorY
	s.shownVisible = s.cursorVisible
	s.shownValid = true
	return nil
}
