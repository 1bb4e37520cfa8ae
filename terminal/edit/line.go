package edit

import (
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// isWordChar returns true for word-constituent characters
func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// isMark reports zero-width runes that attach to the preceding character
func isMark(r rune) bool {
	return r != 0 && runewidth.RuneWidth(r) == 0
}

// Line holds editable line state
type Line struct {
	Text   []rune
	Cursor int // Position before which cursor sits (0 = before first char)
	Scroll int // First visible rune index
}

// NewLine creates initialized line state with the cursor at the end
func NewLine(initial string) *Line {
	runes := []rune(initial)
	return &Line{
		Text:   runes,
		Cursor: len(runes),
	}
}

// --- Value access ---

// Value returns current text as string
func (l *Line) Value() string {
	return string(l.Text)
}

// SetValue replaces text and moves cursor to end
func (l *Line) SetValue(s string) {
	l.Text = []rune(s)
	l.Cursor = len(l.Text)
	l.Scroll = 0
}

// Clear empties the line
func (l *Line) Clear() {
	l.Text = nil
	l.Cursor = 0
	l.Scroll = 0
}

// Len returns the number of runes
func (l *Line) Len() int {
	return len(l.Text)
}

// --- Character insertion ---

// Insert adds rune at cursor position
func (l *Line) Insert(r rune) {
	l.Text = append(l.Text[:l.Cursor], append([]rune{r}, l.Text[l.Cursor:]...)...)
	l.Cursor++
}

// InsertString adds string at cursor position
func (l *Line) InsertString(s string) {
	runes := []rune(s)
	l.Text = append(l.Text[:l.Cursor], append(runes, l.Text[l.Cursor:]...)...)
	l.Cursor += len(runes)
}

// --- Character deletion ---

// prevBoundary returns the start of the character before i, treating a
// base rune with its combining marks as one character
func (l *Line) prevBoundary(i int) int {
	if i <= 0 {
		return 0
	}
	i--
	for i > 0 && isMark(l.Text[i]) {
		i--
	}
	return i
}

// nextBoundary returns the end of the character starting at i
func (l *Line) nextBoundary(i int) int {
	if i >= len(l.Text) {
		return len(l.Text)
	}
	i++
	for i < len(l.Text) && isMark(l.Text[i]) {
		i++
	}
	return i
}

// DeleteBackward removes the character before cursor
func (l *Line) DeleteBackward() bool {
	if l.Cursor > 0 {
		start := l.prevBoundary(l.Cursor)
		l.Text = append(l.Text[:start], l.Text[l.Cursor:]...)
		l.Cursor = start
		return true
	}
	return false
}

// DeleteForward removes the character at cursor
func (l *Line) DeleteForward() bool {
	if l.Cursor < len(l.Text) {
		end := l.nextBoundary(l.Cursor)
		l.Text = append(l.Text[:l.Cursor], l.Text[end:]...)
		return true
	}
	return false
}

// --- Word deletion ---

// DeleteWordBackward removes word before cursor
func (l *Line) DeleteWordBackward() bool {
	if l.Cursor == 0 {
		return false
	}
	// Skip trailing non-word chars
	end := l.Cursor
	for end > 0 && !isWordChar(l.Text[end-1]) {
		end--
	}
	// Skip word chars
	start := end
	for start > 0 && isWordChar(l.Text[start-1]) {
		start--
	}
	if start == l.Cursor {
		start = l.Cursor - 1
	}
	l.Text = append(l.Text[:start], l.Text[l.Cursor:]...)
	l.Cursor = start
	return true
}

// DeleteWordForward removes word after cursor
func (l *Line) DeleteWordForward() bool {
	if l.Cursor >= len(l.Text) {
		return false
	}
	// Skip word chars
	end := l.Cursor
	for end < len(l.Text) && isWordChar(l.Text[end]) {
		end++
	}
	// Skip trailing non-word chars
	for end < len(l.Text) && !isWordChar(l.Text[end]) {
		end++
	}
	if end == l.Cursor {
		end = l.Cursor + 1
	}
	l.Text = append(l.Text[:l.Cursor], l.Text[end:]...)
	return true
}

// DeleteToEnd removes from cursor to end
func (l *Line) DeleteToEnd() bool {
	if l.Cursor < len(l.Text) {
		l.Text = l.Text[:l.Cursor]
		return true
	}
	return false
}

// DeleteToStart removes from start to cursor
func (l *Line) DeleteToStart() bool {
	if l.Cursor > 0 {
		l.Text = l.Text[l.Cursor:]
		l.Cursor = 0
		l.Scroll = 0
		return true
	}
	return false
}

// TransposeChars swaps the characters around the cursor, moving forward
func (l *Line) TransposeChars() bool {
	if len(l.Text) < 2 || l.Cursor == 0 {
		return false
	}
	i := l.Cursor
	if i == len(l.Text) {
		i--
	}
	l.Text[i-1], l.Text[i] = l.Text[i], l.Text[i-1]
	l.Cursor = i + 1
	return true
}

// --- Character movement ---

// MoveLeft moves cursor left by one character
func (l *Line) MoveLeft() bool {
	if l.Cursor > 0 {
		l.Cursor = l.prevBoundary(l.Cursor)
		return true
	}
	return false
}

// MoveRight moves cursor right by one character
func (l *Line) MoveRight() bool {
	if l.Cursor < len(l.Text) {
		l.Cursor = l.nextBoundary(l.Cursor)
		return true
	}
	return false
}

// --- Word movement ---

// MoveWordLeft moves cursor to previous word boundary
func (l *Line) MoveWordLeft() bool {
	if l.Cursor == 0 {
		return false
	}
	// Skip non-word chars
	for l.Cursor > 0 && !isWordChar(l.Text[l.Cursor-1]) {
		l.Cursor--
	}
	// Skip word chars
	for l.Cursor > 0 && isWordChar(l.Text[l.Cursor-1]) {
		l.Cursor--
	}
	return true
}

// MoveWordRight moves cursor to next word boundary
func (l *Line) MoveWordRight() bool {
	if l.Cursor >= len(l.Text) {
		return false
	}
	// Skip word chars
	for l.Cursor < len(l.Text) && isWordChar(l.Text[l.Cursor]) {
		l.Cursor++
	}
	// Skip non-word chars
	for l.Cursor < len(l.Text) && !isWordChar(l.Text[l.Cursor]) {
		l.Cursor++
	}
	return true
}

// --- Line movement ---

// MoveToStart moves cursor to beginning
func (l *Line) MoveToStart() bool {
	moved := l.Cursor != 0
	l.Cursor = 0
	return moved
}

// MoveToEnd moves cursor to end
func (l *Line) MoveToEnd() bool {
	moved := l.Cursor != len(l.Text)
	l.Cursor = len(l.Text)
	return moved
}

// --- Scroll management ---

// Width returns the display width of runes in columns
func Width(runes []rune) int {
	return uniseg.StringWidth(string(runes))
}

// AdjustScroll updates scroll to keep cursor visible within viewportW
// columns. The cell under the cursor must fit, so the cursor column is
// at most viewportW-1
func (l *Line) AdjustScroll(viewportW int) {
	if viewportW <= 0 {
		return
	}
	if l.Cursor < l.Scroll {
		l.Scroll = l.Cursor
	}
	for l.Scroll < l.Cursor && Width(l.Text[l.Scroll:l.Cursor]) >= viewportW {
		l.Scroll = l.nextBoundary(l.Scroll)
	}
	if l.Scroll < 0 {
		l.Scroll = 0
	}
}

// Visible returns the runes shown in a viewport of viewportW columns
// starting at Scroll, and the cursor column within it
func (l *Line) Visible(viewportW int) (runes []rune, cursorCol int) {
	if viewportW <= 0 {
		return nil, 0
	}
	cols := 0
	end := l.Scroll
	for end < len(l.Text) {
		next := l.nextBoundary(end)
		w := Width(l.Text[end:next])
		if cols+w > viewportW {
			break
		}
		cols += w
		end = next
	}
	cur := min(max(l.Cursor, l.Scroll), end)
	return l.Text[l.Scroll:end], Width(l.Text[l.Scroll:cur])
}
