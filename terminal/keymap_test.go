package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyEvent(k Key, mod Modifier) Event {
	return Event{Type: EventKey, Key: k, Modifiers: mod}
}

func TestDefaultKeymap(t *testing.T) {
	km := DefaultKeymap()

	tests := []struct {
		ev   Event
		want LineAction
	}{
		{keyEvent(KeyEnter, ModNone), ActionAccept},
		{keyEvent(KeyCtrlC, ModNone), ActionInterrupt},
		{keyEvent(KeyLeft, ModNone), ActionBackwardChar},
		{keyEvent(KeyLeft, ModCtrl), ActionBackwardWord},
		{keyEvent(KeyLeft, ModShift), ActionNone},
		{keyEvent(KeyCtrlW, ModNone), ActionDeleteWordBackward},
		{keyEvent(KeyUp, ModNone), ActionHistoryPrev},
		{Event{Type: EventKey, Key: KeyRune, Rune: 'b', Modifiers: ModAlt}, ActionBackwardWord},
		{Event{Type: EventKey, Key: KeyRune, Rune: 'd', Modifiers: ModAlt}, ActionDeleteWordForward},
		{Event{Type: EventKey, Key: KeyRune, Rune: 'b'}, ActionNone},
		{Event{Type: EventPaste, Text: "x"}, ActionNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, km.Lookup(tt.ev), "%+v", tt.ev)
	}
}

func TestKeymap_BindClone(t *testing.T) {
	km := DefaultKeymap()
	clone := km.Clone()

	km.Bind(KeyCtrlJ, ModNone, ActionAccept)
	km.Bind(KeyCtrlT, ModNone, ActionNone)

	assert.Equal(t, ActionAccept, km.Lookup(keyEvent(KeyCtrlJ, ModNone)))
	assert.Equal(t, ActionNone, km.Lookup(keyEvent(KeyCtrlT, ModNone)))

	assert.Equal(t, ActionNone, clone.Lookup(keyEvent(KeyCtrlJ, ModNone)), "clone is independent")
	assert.Equal(t, ActionTranspose, clone.Lookup(keyEvent(KeyCtrlT, ModNone)))
}

func TestParseKeymap(t *testing.T) {
	km, err := ParseKeymap([]byte(`
[line]
ctrl_j = "accept"
"alt+left" = "line_start"
"ctrl+shift+right" = "line_end"
ctrl_t = "none"
`))
	require.NoError(t, err)
	assert.Equal(t, ActionAccept, km.Lookup(keyEvent(KeyCtrlJ, ModNone)))
	assert.Equal(t, ActionLineStart, km.Lookup(keyEvent(KeyLeft, ModAlt)))
	assert.Equal(t, ActionLineEnd, km.Lookup(keyEvent(KeyRight, ModCtrl|ModShift)))
	assert.Equal(t, ActionNone, km.Lookup(keyEvent(KeyCtrlT, ModNone)))
	assert.Equal(t, ActionAccept, km.Lookup(keyEvent(KeyEnter, ModNone)), "defaults survive")

	for _, bad := range []string{
		"[line]\nhyper+left = \"accept\"\n",
		"[line]\nnosuchkey = \"accept\"\n",
		"[line]\nleft = \"fly\"\n",
		"[line\n",
	} {
		_, err := ParseKeymap([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestActionByName(t *testing.T) {
	a, ok := ActionByName(" History_Prev ")
	assert.True(t, ok)
	assert.Equal(t, ActionHistoryPrev, a)
	assert.Equal(t, "history_prev", a.String())

	_, ok = ActionByName("teleport")
	assert.False(t, ok)
}
