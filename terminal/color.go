package terminal

import (
	"fmt"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorModeAuto      ColorMode = iota // resolve from terminfo and environment
	ColorModeMono                       // no color
	ColorMode8                          // ANSI 8
	ColorMode16                         // ANSI 8 + bright
	ColorMode256                        // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

var colorModeNames = map[ColorMode]string{
	ColorModeAuto:      "auto",
	ColorModeMono:      "mono",
	ColorMode8:         "8",
	ColorMode16:        "16",
	ColorMode256:       "256",
	ColorModeTrueColor: "truecolor",
}

// String returns the config name of the mode
func (m ColorMode) String() string {
	if n, ok := colorModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("ColorMode(%d)", m)
}

// ParseColorMode accepts the config names plus common aliases
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorModeAuto, nil
	case "mono", "none", "monochrome":
		return ColorModeMono, nil
	case "8", "ansi8":
		return ColorMode8, nil
	case "16", "ansi16", "ansi":
		return ColorMode16, nil
	case "256", "ansi256":
		return ColorMode256, nil
	case "truecolor", "true", "24bit", "24-bit", "direct":
		return ColorModeTrueColor, nil
	}
	return ColorModeAuto, fmt.Errorf("unknown color mode %q", s)
}

// UnmarshalText lets config decoders (toml, yaml, env) read mode names
func (m *ColorMode) UnmarshalText(text []byte) error {
	v, err := ParseColorMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (m ColorMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Colors returns the number of distinct colors the mode can show
func (m ColorMode) Colors() int {
	switch m {
	case ColorMode8:
		return 8
	case ColorMode16:
		return 16
	case ColorMode256:
		return 256
	case ColorModeTrueColor:
		return 1 << 24
	}
	return 0
}

// colorModeFromCount maps a terminfo color count onto a mode
func colorModeFromCount(n int, trueColor bool) ColorMode {
	switch {
	case trueColor:
		return ColorModeTrueColor
	case n >= 256:
		return ColorMode256
	case n >= 16:
		return ColorMode16
	case n >= 8:
		return ColorMode8
	}
	return ColorModeMono
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Color packs either a palette index or an RGB value. The zero value is
// the terminal default color
type Color uint32

const (
	ColorDefault Color = 0

	colorValid Color = 1 << 25
	colorIsRGB Color = 1 << 24
)

// Standard ANSI palette entries
const (
	ColorBlack Color = colorValid | iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightBlack
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
)

// PaletteColor returns the palette color at index i, clamped to 0-255
func PaletteColor(i int) Color {
	if i < 0 {
		i = 0
	}
	if i > 255 {
		i = 255
	}
	return colorValid | Color(i)
}

// NewRGBColor returns a 24-bit color
func NewRGBColor(r, g, b uint8) Color {
	return colorValid | colorIsRGB | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// Color converts to a 24-bit Color value
func (c RGB) Color() Color {
	return NewRGBColor(c.R, c.G, c.B)
}

// IsRGB reports whether the color carries a 24-bit value
func (c Color) IsRGB() bool {
	return c&colorValid != 0 && c&colorIsRGB != 0
}

// Index returns the palette index, or -1 for default and RGB colors
func (c Color) Index() int {
	if c&colorValid == 0 || c&colorIsRGB != 0 {
		return -1
	}
	return int(c & 0xff)
}

// RGB returns the color's 24-bit value. Palette colors use xterm defaults
func (c Color) RGB() RGB {
	if c.IsRGB() {
		return RGB{uint8(c >> 16), uint8(c >> 8), uint8(c)}
	}
	if i := c.Index(); i >= 0 {
		return paletteRGB(i)
	}
	return RGB{}
}

// String formats the color for diagnostics
func (c Color) String() string {
	switch {
	case c == ColorDefault:
		return "default"
	case c.IsRGB():
		rgb := c.RGB()
		return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
	}
	return fmt.Sprintf("color%d", c.Index())
}

// Downgrade maps the color onto the nearest color representable in mode
func (c Color) Downgrade(mode ColorMode) Color {
	if c == ColorDefault {
		return c
	}
	switch mode {
	case ColorModeMono:
		return ColorDefault
	case ColorModeTrueColor, ColorModeAuto:
		return c
	case ColorMode256:
		if c.IsRGB() {
			return PaletteColor(int(RGBTo256(c.RGB())))
		}
		return c
	}

	// 16 and 8
	idx := c.Index()
	if idx < 0 || idx >= 16 {
		idx = nearestANSI(c.RGB())
	}
	if mode == ColorMode8 && idx >= 8 {
		idx -= 8
	}
	return PaletteColor(idx)
}

// ansiPalette holds the xterm default values of the first 16 entries
var ansiPalette = [16]RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// ansiLab caches the 16 palette entries in go-colorful form
var ansiLab [16]colorful.Color

func init() {
	for i, p := range ansiPalette {
		ansiLab[i] = toColorful(p)
	}
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// nearestANSI returns the closest of the 16 ANSI colors in CIE Lab space
func nearestANSI(c RGB) int {
	target := toColorful(c)
	best := 0
	bestDist := target.DistanceLab(ansiLab[0])
	for i := 1; i < len(ansiLab); i++ {
		if d := target.DistanceLab(ansiLab[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// Color cube values for 6x6x6 palette (indices 16-231)
// Levels: 0, 95, 135, 175, 215, 255
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps 0-255 to nearest cube index 0-5
var cubeIndex [256]uint8

// grayscaleStart is the first grayscale index (232-255 = 24 shades)
const grayscaleStart = 232

func init() {
	for i := 0; i < 256; i++ {
		best := 0
		bestDist := abs(i - int(cubeValues[0]))
		for j := 1; j < 6; j++ {
			d := abs(i - int(cubeValues[j]))
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		cubeIndex[i] = uint8(best)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// paletteRGB returns the xterm default RGB value of a palette index
func paletteRGB(i int) RGB {
	switch {
	case i < 16:
		return ansiPalette[i]
	case i < grayscaleStart:
		r, g, b := CubeRGB256(uint8(i))
		return RGB{cubeValues[r], cubeValues[g], cubeValues[b]}
	default:
		level := uint8(8 + 10*(i-grayscaleStart))
		return RGB{level, level, level}
	}
}

// RGBTo256 finds the nearest 256-color palette index for an RGB value
func RGBTo256(c RGB) uint8 {
	r, g, b := c.R, c.G, c.B

	// Grayscale ramp: 232-255 maps to luminance 8, 18, 28, ..., 238
	gray := (int(r) + int(g) + int(b)) / 3
	maxDiff := max(abs(int(r)-gray), abs(int(g)-gray), abs(int(b)-gray))

	if maxDiff < 10 {
		if gray < 4 {
			return 16
		}
		if gray > 243 {
			return 231
		}
		grayIdx := int(Gray256(uint8(max(gray-8, 0) / 10)))

		// Compare grayscale match vs color cube match
		grayLevel := 8 + (grayIdx-grayscaleStart)*10
		grayDist := abs(int(r)-grayLevel) + abs(int(g)-grayLevel) + abs(int(b)-grayLevel)

		cubeDist := abs(int(r)-int(cubeValues[cubeIndex[r]])) +
			abs(int(g)-int(cubeValues[cubeIndex[g]])) +
			abs(int(b)-int(cubeValues[cubeIndex[b]]))

		if grayDist < cubeDist {
			return uint8(grayIdx)
		}
	}

	return Cube256(cubeIndex[r], cubeIndex[g], cubeIndex[b])
}

// DetectColorMode determines terminal color capability from environment.
// Returns ColorModeAuto when nothing conclusive is set, leaving the
// decision to the terminfo entry
func DetectColorMode() ColorMode {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return ColorModeMono
	}

	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" ||
		os.Getenv("KONSOLE_VERSION") != "" ||
		os.Getenv("ITERM_SESSION_ID") != "" ||
		os.Getenv("ALACRITTY_WINDOW_ID") != "" ||
		os.Getenv("ALACRITTY_LOG") != "" ||
		os.Getenv("WEZTERM_PANE") != "" ||
		os.Getenv("WT_SESSION") != "" {
		return ColorModeTrueColor
	}

	term := strings.ToLower(os.Getenv("TERM"))
	switch {
	case strings.Contains(term, "truecolor"),
		strings.Contains(term, "24bit"),
		strings.Contains(term, "direct"):
		return ColorModeTrueColor
	case strings.HasSuffix(term, "-256color"):
		return ColorMode256
	}

	return ColorModeAuto
}
