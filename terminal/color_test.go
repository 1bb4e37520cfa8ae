package terminal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorMode(t *testing.T) {
	tests := map[string]ColorMode{
		"":          ColorModeAuto,
		"auto":      ColorModeAuto,
		"mono":      ColorModeMono,
		" 8 ":       ColorMode8,
		"ANSI":      ColorMode16,
		"256":       ColorMode256,
		"24bit":     ColorModeTrueColor,
		"TrueColor": ColorModeTrueColor,
	}
	for in, want := range tests {
		got, err := ParseColorMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseColorMode("sepia")
	assert.Error(t, err)

	var m ColorMode
	require.NoError(t, m.UnmarshalText([]byte("256")))
	assert.Equal(t, ColorMode256, m)
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "256", string(text))
}

func TestColor_Accessors(t *testing.T) {
	assert.Equal(t, "default", ColorDefault.String())
	assert.Equal(t, -1, ColorDefault.Index())

	c := NewRGBColor(1, 2, 255)
	assert.True(t, c.IsRGB())
	assert.Equal(t, -1, c.Index())
	assert.Equal(t, RGB{1, 2, 255}, c.RGB())
	assert.Equal(t, "#0102ff", c.String())
	assert.Equal(t, c, RGB{1, 2, 255}.Color())

	assert.Equal(t, 1, ColorRed.Index())
	assert.Equal(t, "color1", ColorRed.String())
	assert.Equal(t, RGB{205, 0, 0}, ColorRed.RGB())
	assert.Equal(t, RGB{95, 135, 175}, PaletteColor(67).RGB())
	assert.Equal(t, RGB{8, 8, 8}, PaletteColor(232).RGB())
	assert.Equal(t, 255, PaletteColor(300).Index())
	assert.Equal(t, 0, PaletteColor(-4).Index())
}

func TestColor_Downgrade(t *testing.T) {
	red := NewRGBColor(255, 0, 0)

	assert.Equal(t, red, red.Downgrade(ColorModeTrueColor))
	assert.Equal(t, PaletteColor(196), red.Downgrade(ColorMode256))
	assert.Equal(t, ColorBrightRed, red.Downgrade(ColorMode16))
	assert.Equal(t, ColorRed, red.Downgrade(ColorMode8))
	assert.Equal(t, ColorDefault, red.Downgrade(ColorModeMono))

	assert.Equal(t, ColorBrightRed, PaletteColor(196).Downgrade(ColorMode16))
	assert.Equal(t, ColorBlue, ColorBrightBlue.Downgrade(ColorMode8))
	assert.Equal(t, ColorCyan, ColorCyan.Downgrade(ColorMode256))
	assert.Equal(t, ColorDefault, ColorDefault.Downgrade(ColorMode8))
}

func TestRGBTo256(t *testing.T) {
	tests := []struct {
		in   RGB
		want uint8
	}{
		{RGB{0, 0, 0}, 16},
		{RGB{255, 255, 255}, 231},
		{RGB{128, 128, 128}, 244},
		{RGB{95, 135, 175}, 67},
		{RGB{255, 0, 0}, 196},
		{RGB{0, 255, 0}, 46},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RGBTo256(tt.in), "%v", tt.in)
	}
}

func TestPalette256Helpers(t *testing.T) {
	assert.Equal(t, uint8(196), Cube256(9, 0, 0), "coordinates clamp to 5")
	assert.Equal(t, uint8(67), Cube256(1, 2, 3))

	r, g, b := CubeRGB256(67)
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})
	r, g, b = CubeRGB256(5)
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})

	assert.Equal(t, uint8(232), Gray256(0))
	assert.Equal(t, uint8(255), Gray256(40))
}

func TestDetectColorMode(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, ColorModeMono, DetectColorMode())

	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	t.Setenv("COLORTERM", "truecolor")
	assert.Equal(t, ColorModeTrueColor, DetectColorMode())
}
