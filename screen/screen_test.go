package screen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/termkit/terminal"
	"github.com/lixenwraith/termkit/terminal/termtest"
)

func newTestScreen(w, h int, opts ...Option) (*Screen, *termtest.Recorder) {
	rec := termtest.NewRecorder(w, h)
	return New(rec, w, h, opts...), rec
}

func TestRender_Idempotent(t *testing.T) {
	s, rec := newTestScreen(10, 3)
	s.PutString(0, 0, "hello", terminal.StyleDefault)

	require.NoError(t, s.Render())
	assert.Equal(t, "hello     ", rec.Row(0))
	assert.Equal(t, 1, rec.Count(terminal.CapClear))

	rec.Reset()
	require.NoError(t, s.Render())
	assert.Empty(t, rec.Calls(), "Expected no output for an unchanged screen")
}

func TestRender_OnlyChangedCells(t *testing.T) {
	s, rec := newTestScreen(10, 3)
	s.PutString(0, 0, "hello", terminal.StyleDefault)
	require.NoError(t, s.Render())

	rec.Reset()
	require.NoError(t, s.PutCell(2, 0, Cell{Rune: 'X'}))
	require.NoError(t, s.Render())

	assert.Equal(t, "X", rec.Text())
	assert.Equal(t, 1, rec.Count(terminal.CapCursorPos))
	assert.Zero(t, rec.Count(terminal.CapClear))
	assert.Equal(t, "heXlo     ", rec.Row(0))
}

func TestRender_RunNeedsOneMove(t *testing.T) {
	s, rec := newTestScreen(20, 2)
	require.NoError(t, s.Render())

	rec.Reset()
	s.PutString(3, 1, "abcdef", terminal.StyleDefault)
	require.NoError(t, s.Render())

	assert.Equal(t, 1, rec.Count(terminal.CapCursorPos))
	assert.Equal(t, "abcdef", rec.Text())
	assert.Equal(t, "   abcdef           ", rec.Row(1))
}

func TestRender_StyleCoalesced(t *testing.T) {
	s, rec := newTestScreen(10, 1)
	bold := terminal.Style{Attrs: terminal.AttrBold}
	s.PutString(0, 0, "abc", bold)
	s.PutString(3, 0, "de", terminal.StyleDefault)

	require.NoError(t, s.Render())
	assert.Equal(t, 1, rec.Count(terminal.CapBold))
	// Clear, the bold-to-default reset
	assert.Equal(t, 2, rec.Count(terminal.CapAttrOff))
	assert.Equal(t, "abcde     ", rec.Row(0))
}

func TestRender_StyleResetAfterRender(t *testing.T) {
	s, rec := newTestScreen(4, 1)
	s.PutString(0, 0, "ab", terminal.Style{Fg: terminal.ColorRed})
	require.NoError(t, s.Render())

	calls := rec.Calls()
	var last terminal.Cap = 255
	for _, c := range calls {
		if !c.IsText {
			last = c.Cap
		}
	}
	// The terminal is left in the default rendition before the cursor update
	assert.Contains(t, []terminal.Cap{terminal.CapAttrOff, terminal.CapHideCursor}, last)
	assert.GreaterOrEqual(t, rec.Count(terminal.CapAttrOff), 2)
}

func TestRender_ResizeRedrawsFully(t *testing.T) {
	s, rec := newTestScreen(80, 24)
	s.PutString(0, 0, strings.Repeat("x", 80), terminal.StyleDefault)
	s.PutString(0, 23, "bottom", terminal.StyleDefault)
	require.NoError(t, s.Render())

	s.Resize(40, 24)
	rec.Resize(40, 24)
	rec.Reset()
	require.NoError(t, s.Render())

	assert.Equal(t, 1, rec.Count(terminal.CapClear))
	assert.Equal(t, strings.Repeat("x", 40), rec.Row(0))
	assert.Equal(t, "bottom"+strings.Repeat(" ", 34), rec.Row(23))

	w, h := s.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 24, h)
}

func TestResize_KeepsOverlapAndClampsCursor(t *testing.T) {
	s, _ := newTestScreen(10, 5)
	s.PutString(0, 0, "abcdefghij", terminal.StyleDefault)
	require.NoError(t, s.SetCursor(8, 4))

	s.Resize(4, 2)
	c, ok := s.Cell(3, 0)
	require.True(t, ok)
	assert.Equal(t, 'd', c.Rune)
	_, ok = s.Cell(4, 0)
	assert.False(t, ok)

	x, y := s.Cursor()
	assert.Equal(t, 3, x)
	assert.Equal(t, 1, y)
}

func TestResize_SplitWideCellBlanked(t *testing.T) {
	s, _ := newTestScreen(6, 1)
	require.NoError(t, s.PutCell(2, 0, Cell{Rune: '世'}))

	s.Resize(3, 1)
	c, _ := s.Cell(2, 0)
	assert.True(t, c.Equal(Blank), "wide cell cut by the new edge must become blank")
}

func TestHandleEvent_Resize(t *testing.T) {
	s, _ := newTestScreen(10, 5)
	assert.True(t, s.HandleEvent(terminal.Event{Type: terminal.EventResize, Width: 20, Height: 8}))
	assert.False(t, s.HandleEvent(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyEnter}))

	w, h := s.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 8, h)
}

func TestWideChar_LastColumnDropped(t *testing.T) {
	s, rec := newTestScreen(5, 2)
	require.NoError(t, s.PutCell(4, 0, Cell{Rune: '世'}))

	c, ok := s.Cell(4, 0)
	require.True(t, ok)
	assert.True(t, c.Equal(Blank))

	require.NoError(t, s.Render())
	assert.Equal(t, "     ", rec.Row(0))
	assert.Equal(t, "     ", rec.Row(1))
}

func TestWideChar_LastColumnWrapped(t *testing.T) {
	s, rec := newTestScreen(5, 2, WithOverflow(OverflowWrap))
	require.NoError(t, s.PutCell(4, 0, Cell{Rune: '世'}))

	c, _ := s.Cell(0, 1)
	assert.Equal(t, '世', c.Rune)
	right, _ := s.Cell(1, 1)
	assert.True(t, right.Equal(Blank))

	require.NoError(t, s.Render())
	assert.Equal(t, "世   ", rec.Row(1))
}

func TestWideChar_LastColumnWrapAtBottomDropped(t *testing.T) {
	s, _ := newTestScreen(5, 1, WithOverflow(OverflowWrap))
	require.NoError(t, s.PutCell(4, 0, Cell{Rune: '世'}))
	c, _ := s.Cell(4, 0)
	assert.True(t, c.Equal(Blank))
}

func TestWideChar_OverwriteHalfClearsOther(t *testing.T) {
	s, rec := newTestScreen(5, 1)
	require.NoError(t, s.PutCell(0, 0, Cell{Rune: '世'}))
	require.NoError(t, s.Render())
	assert.Equal(t, "世   ", rec.Row(0))

	require.NoError(t, s.PutCell(1, 0, Cell{Rune: 'a'}))
	left, _ := s.Cell(0, 0)
	assert.True(t, left.Equal(Blank))

	require.NoError(t, s.Render())
	assert.Equal(t, " a   ", rec.Row(0))
}

func TestWideChar_RenderAdvancesTwoColumns(t *testing.T) {
	s, rec := newTestScreen(6, 1)
	x, y := s.PutString(0, 0, "世界!", terminal.StyleDefault)
	assert.Equal(t, 5, x)
	assert.Equal(t, 0, y)

	require.NoError(t, s.Render())
	assert.Equal(t, "世界! ", rec.Row(0))
	assert.Zero(t, rec.Count(terminal.CapCursorPos), "cursor is home after the clear; wide cells need no moves")
}

func TestPutString_Combining(t *testing.T) {
	s, rec := newTestScreen(5, 1)
	x, _ := s.PutString(0, 0, "q\u0307x", terminal.StyleDefault)
	assert.Equal(t, 2, x)

	c, _ := s.Cell(0, 0)
	assert.Equal(t, 'q', c.Rune)
	assert.Equal(t, []rune{0x307}, c.Comb)
	next, _ := s.Cell(1, 0)
	assert.Equal(t, 'x', next.Rune)

	require.NoError(t, s.Render())
	assert.Contains(t, rec.Text(), "q\u0307")
}

func TestPutString_NormalizesToNFC(t *testing.T) {
	s, _ := newTestScreen(5, 1)
	s.PutString(0, 0, "e\u0301", terminal.StyleDefault)
	c, _ := s.Cell(0, 0)
	assert.Equal(t, '\u00e9', c.Rune)
	assert.Empty(t, c.Comb)
}

func TestPutString_Tabs(t *testing.T) {
	s, _ := newTestScreen(20, 1)
	x, _ := s.PutString(0, 0, "a\tb", terminal.StyleDefault)
	assert.Equal(t, 9, x)
	c, _ := s.Cell(8, 0)
	assert.Equal(t, 'b', c.Rune)

	s4, _ := newTestScreen(20, 1, WithTabWidth(4))
	s4.PutString(0, 0, "a\tb", terminal.StyleDefault)
	c, _ = s4.Cell(4, 0)
	assert.Equal(t, 'b', c.Rune)
}

func TestPutString_Newlines(t *testing.T) {
	s, _ := newTestScreen(5, 3)
	x, y := s.PutString(2, 0, "ab\ncd\rX", terminal.StyleDefault)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)

	c, _ := s.Cell(0, 1)
	assert.Equal(t, 'X', c.Rune)
	c, _ = s.Cell(1, 1)
	assert.Equal(t, 'd', c.Rune)
	c, _ = s.Cell(2, 0)
	assert.Equal(t, 'a', c.Rune)
}

func TestPutString_ClippedLeft(t *testing.T) {
	s, _ := newTestScreen(6, 2)
	x, _ := s.PutString(-2, 0, "世界ab", terminal.StyleDefault)
	assert.Equal(t, 4, x)

	c, _ := s.Cell(0, 0)
	assert.Equal(t, '界', c.Rune, "a clipped wide character takes two columns")
	c, _ = s.Cell(2, 0)
	assert.Equal(t, 'a', c.Rune)

	// Rows above the screen are skipped, not the rest of the text
	s.PutString(0, -1, "xy\ncd", terminal.StyleDefault)
	c, _ = s.Cell(0, 0)
	assert.Equal(t, 'c', c.Rune)
}

func TestPutString_Overflow(t *testing.T) {
	s, _ := newTestScreen(3, 2)
	s.PutString(0, 0, "abcde", terminal.StyleDefault)
	c, _ := s.Cell(0, 1)
	assert.True(t, c.Equal(Blank), "drop policy truncates the row")

	w, _ := newTestScreen(3, 2, WithOverflow(OverflowWrap))
	w.PutString(0, 0, "abcde", terminal.StyleDefault)
	c, _ = w.Cell(1, 1)
	assert.Equal(t, 'e', c.Rune)
}

func TestOutOfBounds(t *testing.T) {
	s, _ := newTestScreen(10, 2)
	assert.ErrorIs(t, s.PutCell(10, 0, Cell{Rune: 'a'}), ErrOutOfBounds)
	assert.ErrorIs(t, s.PutCell(0, -1, Cell{Rune: 'a'}), ErrOutOfBounds)
	assert.ErrorIs(t, s.SetCursor(-1, 0), ErrOutOfBounds)
	assert.ErrorIs(t, s.SetCursor(0, 2), ErrOutOfBounds)

	_, ok := s.Cell(10, 0)
	assert.False(t, ok)
}

func TestFill(t *testing.T) {
	s, rec := newTestScreen(5, 2)
	s.Fill(Cell{Rune: '世'})
	c, _ := s.Cell(4, 0)
	assert.True(t, c.Equal(Blank), "odd column left blank")

	require.NoError(t, s.Render())
	assert.Equal(t, "世世 ", rec.Row(0))

	s.Clear()
	rec.Reset()
	require.NoError(t, s.Render())
	assert.Equal(t, "     ", rec.Row(1))
}

func TestRender_Cursor(t *testing.T) {
	s, rec := newTestScreen(10, 3)
	s.PutString(0, 0, "abc", terminal.StyleDefault)
	s.SetCursorVisible(true)
	require.NoError(t, s.SetCursor(3, 1))

	require.NoError(t, s.Render())
	x, y, visible := rec.Cursor()
	assert.Equal(t, 3, x)
	assert.Equal(t, 1, y)
	assert.True(t, visible)

	rec.Reset()
	require.NoError(t, s.Render())
	assert.Empty(t, rec.Calls())

	require.NoError(t, s.SetCursor(5, 2))
	require.NoError(t, s.Render())
	assert.Equal(t, []termtest.Call{{Cap: terminal.CapCursorPos, Params: []int{2, 5}}}, rec.Calls())

	rec.Reset()
	s.SetCursorVisible(false)
	require.NoError(t, s.Render())
	assert.Equal(t, 1, rec.Count(terminal.CapHideCursor))
	_, _, visible = rec.Cursor()
	assert.False(t, visible)
}

func TestRender_ErrorInvalidates(t *testing.T) {
	s, rec := newTestScreen(10, 2)
	s.PutString(0, 0, "abc", terminal.StyleDefault)

	rec.FailAfter(2)
	err := s.Render()
	require.Error(t, err)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "render", re.Op)
	assert.ErrorIs(t, err, termtest.ErrInjected)

	rec.FailAfter(-1)
	rec.Reset()
	require.NoError(t, s.Render())
	assert.Equal(t, 1, rec.Count(terminal.CapClear), "failed render forces a full redraw")
	assert.Equal(t, "abc       ", rec.Row(0))
}

func TestRender_FlushFailureRedraws(t *testing.T) {
	s, rec := newTestScreen(10, 1)
	require.NoError(t, s.Render())
	assert.Equal(t, 1, rec.Flushes())

	s.PutString(0, 0, "abc", terminal.StyleDefault)
	rec.FailFlush(termtest.ErrInjected)
	err := s.Render()
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "flush", re.Op)
	assert.ErrorIs(t, err, termtest.ErrInjected)

	rec.FailFlush(nil)
	rec.Reset()
	require.NoError(t, s.Render())
	assert.Equal(t, 1, rec.Count(terminal.CapClear), "cells lost with the flush are drawn again")
	assert.Equal(t, "abc", rec.Text())
}

func TestInvalidate(t *testing.T) {
	s, rec := newTestScreen(4, 1)
	require.NoError(t, s.Render())
	s.Invalidate()
	rec.Reset()
	require.NoError(t, s.Render())
	assert.Equal(t, 1, rec.Count(terminal.CapClear))
}

func TestClose_WithoutTerminal(t *testing.T) {
	s, _ := newTestScreen(4, 1)
	assert.NoError(t, s.Close())
}
