// @focus: #sys { render } #screen { cell }
package screen

import (
	"slices"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/termkit/terminal"
)

// Cell is the content of one screen position. Rune 0 is a blank.
// Comb holds combining marks drawn over Rune
type Cell struct {
	Rune  rune
	Comb  []rune
	Style terminal.Style
}

// Blank is an empty cell in the default style
var Blank = Cell{}

// Width returns the display width: 1 for blanks and narrow characters,
// 2 for wide characters
func (c Cell) Width() int {
	if c.Rune == 0 {
		return 1
	}
	if runewidth.RuneWidth(c.Rune) == 2 {
		return 2
	}
	return 1
}

// Equal compares content and style
func (c Cell) Equal(o Cell) bool {
	return c.Rune == o.Rune && c.Style == o.Style && slices.Equal(c.Comb, o.Comb)
}

// text is what the terminal is sent for the cell
func (c Cell) text() string {
	r := c.Rune
	if r == 0 {
		r = ' '
	}
	if len(c.Comb) == 0 {
		return string(r)
	}
	buf := make([]rune, 0, 1+len(c.Comb))
	buf = append(buf, r)
	buf = append(buf, c.Comb...)
	return string(buf)
}

// slot is a grid position: a primary cell or the continuation of the
// wide cell to its left
type slot struct {
	Cell
	cont bool
}

func (s slot) equal(o slot) bool {
	if s.cont || o.cont {
		return s.cont == o.cont
	}
	return s.Cell.Equal(o.Cell)
}
