package screen

import (
	"slices"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/lixenwraith/termkit/terminal"
)

// Overflow selects what happens to a wide character at the last column
type Overflow uint8

const (
	OverflowDrop Overflow = iota // discard the character
	OverflowWrap                 // place it at the start of the next row
)

// DefaultTabWidth is the tab stop interval of PutString
const DefaultTabWidth = 8

// grid is a row-major array of slots
type grid struct {
	width  int
	height int
	slots  []slot
}

func newGrid(width, height int) *grid {
	return &grid{width: width, height: height, slots: make([]slot, width*height)}
}

func (g *grid) in(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *grid) at(x, y int) *slot {
	return &g.slots[y*g.width+x]
}

// resized copies the overlap into a new grid. A wide cell whose
// continuation falls off the right edge becomes blank
func (g *grid) resized(width, height int) *grid {
	n := newGrid(width, height)
	for y := 0; y < min(height, g.height); y++ {
		for x := 0; x < min(width, g.width); x++ {
			*n.at(x, y) = *g.at(x, y)
		}
		if width < g.width && width > 0 {
			if last := n.at(width-1, y); !last.cont && last.Width() == 2 {
				*last = slot{}
			}
		}
	}
	return n
}

// clearOverlap blanks the other half of any wide cell touching (x, y)
func (g *grid) clearOverlap(x, y int) {
	s := g.at(x, y)
	switch {
	case s.cont:
		if x > 0 {
			*g.at(x-1, y) = slot{}
		}
	case s.Width() == 2:
		if x+1 < g.width {
			*g.at(x+1, y) = slot{}
		}
	}
}

// put stores c at (x, y); width is 1 or 2 and must fit the row
func (g *grid) put(x, y int, c Cell, width int) {
	g.clearOverlap(x, y)
	if width == 2 {
		g.clearOverlap(x+1, y)
	}
	*g.at(x, y) = slot{Cell: c}
	if width == 2 {
		*g.at(x+1, y) = slot{cont: true}
	}
}

// Resize changes the dimensions, keeping overlapping content. The shadow
// is invalidated: the next Render clears and redraws fully
func (s *Screen) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height = max(width, 0), max(height, 0)
	if width == s.back.width && height == s.back.height {
		return
	}
	s.back = s.back.resized(width, height)
	s.cursorX = min(s.cursorX, max(width-1, 0))
	s.cursorY = min(s.cursorY, max(height-1, 0))
	s.invalidateLocked()
}

// Size returns the grid dimensions
func (s *Screen) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back.width, s.back.height
}

// PutCell stores c at (x, y). Writing either half of a wide cell clears
// the other half. A wide cell at the last column is dropped or wrapped per
// the overflow policy. Out-of-bounds writes return ErrOutOfBounds
func (s *Screen) PutCell(x, y int, c Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, _, err := s.putLocked(x, y, c)
	return err
}

// putLocked stores c and returns the position after it. placed is false
// when the overflow policy dropped the cell
func (s *Screen) putLocked(x, y int, c Cell) (nx, ny int, placed bool, err error) {
	g := s.back
	if !g.in(x, y) {
		return x, y, false, ErrOutOfBounds
	}

	// A lone zero-width rune is drawn over a space
	if c.Rune != 0 && runewidth.RuneWidth(c.Rune) == 0 {
		c.Comb = append([]rune{c.Rune}, c.Comb...)
		c.Rune = ' '
	}

	w := c.Width()
	if w == 2 && x == g.width-1 {
		if s.overflow == OverflowDrop || y+1 >= g.height {
			return g.width, y, false, nil
		}
		x, y = 0, y+1
	}
	g.put(x, y, c, w)
	return x + w, y, true, nil
}

// Cell returns the cell at (x, y). The right half of a wide cell reports
// Blank
func (s *Screen) Cell(x, y int) (Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.back.in(x, y) {
		return Cell{}, false
	}
	sl := s.back.at(x, y)
	if sl.cont {
		return Blank, true
	}
	return sl.Cell, true
}

// Fill sets every cell to c
func (s *Screen) Fill(c Cell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.back
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x += c.Width() {
			if c.Width() == 2 && x == g.width-1 {
				*g.at(x, y) = slot{}
				break
			}
			g.put(x, y, c, c.Width())
		}
	}
}

// Clear blanks every cell in the default style
func (s *Screen) Clear() {
	s.Fill(Blank)
}

// PutString writes s starting at (x, y) in style, one grapheme cluster
// per cell. '\t' advances to the next tab stop, '\r' returns to column 0
// and '\n' starts the next row at column 0. Combining marks that do not
// start a cluster of their own are appended to the previous cell. Returns
// the position after the last cell written
func (s *Screen) PutString(x, y int, text string, style terminal.Style) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.back
	lastX, lastY := -1, -1

	gr := uniseg.NewGraphemes(norm.NFC.String(text))
	for gr.Next() {
		runes := gr.Runes()
		r := runes[0]

		switch r {
		case '\r':
			x = 0
			continue
		case '\n':
			x, y = 0, y+1
			continue
		case '\t':
			next := (x/s.tabWidth + 1) * s.tabWidth
			for ; x < next && x < g.width; x++ {
				if g.in(x, y) {
					g.put(x, y, Cell{Style: style}, 1)
				}
			}
			x = next
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}

		if runewidth.RuneWidth(r) == 0 && lastX >= 0 {
			prev := g.at(lastX, lastY)
			prev.Comb = append(slices.Clip(prev.Comb), runes...)
			continue
		}

		if x >= g.width {
			if s.overflow == OverflowDrop {
				continue
			}
			x, y = 0, y+1
		}
		if y >= g.height {
			break
		}
		if x < 0 || y < 0 {
			// Clipped text keeps its columns
			x += max(runewidth.RuneWidth(r), 1)
			continue
		}

		c := Cell{Rune: r, Style: style}
		if len(runes) > 1 {
			c.Comb = append([]rune(nil), runes[1:]...)
		}
		nx, ny, placed, err := s.putLocked(x, y, c)
		if err != nil {
			break
		}
		if placed {
			lastX, lastY = nx-c.Width(), ny
		}
		x, y = nx, ny
	}
	return x, y
}
