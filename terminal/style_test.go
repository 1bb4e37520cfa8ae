package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStyle(t *testing.T) {
	bold := Style{Attrs: AttrBold}
	redBold := Style{Fg: ColorRed, Attrs: AttrBold}

	tests := []struct {
		name      string
		prev      Style
		next      Style
		prevValid bool
		want      string
	}{
		{"unchanged", redBold, redBold, true, ""},
		{"unknown prev resets", StyleDefault, StyleDefault, false, "\x1b[0m"},
		{"add attr and fg", StyleDefault, redBold, true, "\x1b[1m\x1b[31m"},
		{"change fg only", redBold, redBold.WithFg(ColorGreen), true, "\x1b[32m"},
		{"add bg", bold, bold.WithBg(ColorBlue), true, "\x1b[44m"},
		{"remove attr resets", redBold, Style{Fg: ColorRed}, true, "\x1b[0m\x1b[31m"},
		{"fg to default resets", redBold, bold, true, "\x1b[0m\x1b[1m"},
		{"reset then full style", redBold, Style{Fg: ColorRed, Attrs: AttrUnderline}, true, "\x1b[0m\x1b[4m\x1b[31m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &seqInvoker{caps: BuiltinCapabilities(ColorMode256)}
			require.NoError(t, ApplyStyle(inv, tt.prev, tt.next, tt.prevValid))
			assert.Equal(t, tt.want, string(inv.out))
		})
	}
}

func TestAttr_String(t *testing.T) {
	assert.Equal(t, "none", AttrNone.String())
	assert.Equal(t, "bold|underline", (AttrBold | AttrUnderline).String())
	assert.Equal(t, AttrBold|AttrReverse, StyleDefault.WithAttrs(AttrBold).WithAttrs(AttrReverse).Attrs)
}

func TestSeqInvoker_Charset(t *testing.T) {
	enc, ok := LookupCharset("latin1")
	require.True(t, ok)

	inv := &seqInvoker{caps: BuiltinCapabilities(ColorMode16), charset: enc}
	require.NoError(t, inv.WriteText("\u00e9"))
	require.NoError(t, inv.Invoke(CapBell))
	assert.Equal(t, []byte{0xe9, '\a'}, inv.out)

	inv.reset()
	assert.Empty(t, inv.out)
}
