package terminal

import "strings"

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrBlink     Attr = 1 << 4
	AttrReverse   Attr = 1 << 5
)

// attrCaps pairs each attribute bit with the capability that turns it on
var attrCaps = [...]struct {
	attr Attr
	cap  Cap
}{
	{AttrBold, CapBold},
	{AttrDim, CapDim},
	{AttrItalic, CapItalic},
	{AttrUnderline, CapUnderline},
	{AttrBlink, CapBlink},
	{AttrReverse, CapReverse},
}

// String returns attribute names joined with '|'
func (a Attr) String() string {
	if a == AttrNone {
		return "none"
	}
	names := []string{"bold", "dim", "italic", "underline", "blink", "reverse"}
	var parts []string
	for i, n := range names {
		if a&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}

// Style is the full rendition of a cell: colors plus attributes
type Style struct {
	Fg    Color
	Bg    Color
	Attrs Attr
}

// StyleDefault is the terminal's default rendition
var StyleDefault = Style{}

// WithFg returns a copy with foreground set
func (s Style) WithFg(c Color) Style {
	s.Fg = c
	return s
}

// WithBg returns a copy with background set
func (s Style) WithBg(c Color) Style {
	s.Bg = c
	return s
}

// WithAttrs returns a copy with attrs added
func (s Style) WithAttrs(a Attr) Style {
	s.Attrs |= a
	return s
}

// ApplyStyle emits the minimal capability sequence moving the device
// rendition from prev to next. prevValid false forces a reset first.
// Removing an attribute or returning a color to default requires a full
// reset: terminfo has no per-attribute off sequence
func ApplyStyle(inv Invoker, prev, next Style, prevValid bool) error {
	if prevValid && prev == next {
		return nil
	}

	reset := !prevValid ||
		prev.Attrs&^next.Attrs != 0 ||
		(prev.Fg != ColorDefault && next.Fg == ColorDefault) ||
		(prev.Bg != ColorDefault && next.Bg == ColorDefault)

	if reset {
		if err := inv.Invoke(CapAttrOff); err != nil {
			return err
		}
		prev = StyleDefault
	}

	added := next.Attrs &^ prev.Attrs
	for _, ac := range attrCaps {
		if added&ac.attr != 0 {
			if err := inv.Invoke(ac.cap); err != nil {
				return err
			}
		}
	}
	if next.Fg != ColorDefault && next.Fg != prev.Fg {
		if err := inv.Invoke(CapSetFg, int(next.Fg)); err != nil {
			return err
		}
	}
	if next.Bg != ColorDefault && next.Bg != prev.Bg {
		if err := inv.Invoke(CapSetBg, int(next.Bg)); err != nil {
			return err
		}
	}
	return nil
}
