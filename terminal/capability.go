// @lixen: #focus{sys[term,caps]}
package terminal

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2/terminfo"
)

// Cap identifies a named terminal operation
type Cap uint8

const (
	CapClear          Cap = iota // clear screen, cursor home
	CapClearToEOL                // el
	CapClearToEOS                // ed
	CapCursorPos                 // cup: row, col (0-indexed)
	CapCursorUp                  // cuu: n
	CapCursorDown                // cud: n
	CapCursorLeft                // cub: n
	CapCursorRight               // cuf: n
	CapCarriageReturn            // cr
	CapShowCursor                // cnorm
	CapHideCursor                // civis
	CapEnterCA                   // smcup
	CapExitCA                    // rmcup
	CapEnterKeypad               // smkx
	CapExitKeypad                // rmkx
	CapAttrOff                   // sgr0
	CapBold
	CapDim
	CapItalic
	CapUnderline
	CapBlink
	CapReverse
	CapSetFg // Color
	CapSetBg // Color
	CapResetFgBg
	CapEnableAutoMargin
	CapDisableAutoMargin
	CapBell
	CapMouseOn     // click reporting, SGR encoding
	CapMouseDrag   // button-held motion
	CapMouseMotion // all motion
	CapMouseOff
	CapPasteOn
	CapPasteOff

	capCount
)

// capNames holds the terminfo capability name for each Cap. Mouse and paste
// modes use the XM/BE/BD extended names
var capNames = [capCount]string{
	CapClear:             "clear",
	CapClearToEOL:        "el",
	CapClearToEOS:        "ed",
	CapCursorPos:         "cup",
	CapCursorUp:          "cuu",
	CapCursorDown:        "cud",
	CapCursorLeft:        "cub",
	CapCursorRight:       "cuf",
	CapCarriageReturn:    "cr",
	CapShowCursor:        "cnorm",
	CapHideCursor:        "civis",
	CapEnterCA:           "smcup",
	CapExitCA:            "rmcup",
	CapEnterKeypad:       "smkx",
	CapExitKeypad:        "rmkx",
	CapAttrOff:           "sgr0",
	CapBold:              "bold",
	CapDim:               "dim",
	CapItalic:            "sitm",
	CapUnderline:         "smul",
	CapBlink:             "blink",
	CapReverse:           "rev",
	CapSetFg:             "setaf",
	CapSetBg:             "setab",
	CapResetFgBg:         "op",
	CapEnableAutoMargin:  "smam",
	CapDisableAutoMargin: "rmam",
	CapBell:              "bel",
	CapMouseOn:           "XM",
	CapMouseDrag:         "XMdrag",
	CapMouseMotion:       "XMmotion",
	CapMouseOff:          "XMoff",
	CapPasteOn:           "BE",
	CapPasteOff:          "BD",
}

var capByName map[string]Cap

func init() {
	capByName = make(map[string]Cap, capCount)
	for c, n := range capNames {
		capByName[n] = Cap(c)
	}
}

// String returns the terminfo name of the capability
func (c Cap) String() string {
	if c < capCount {
		return capNames[c]
	}
	return "cap" + strconv.Itoa(int(c))
}

// CapByName resolves a terminfo capability name
func CapByName(name string) (Cap, bool) {
	c, ok := capByName[name]
	return c, ok
}

// Source tells where a resolved capability came from
type Source uint8

const (
	SourceNone     Source = iota // unsupported, invocation is a no-op
	SourceTerminfo               // terminal database entry
	SourceBuiltin                // built-in fallback set
	SourceConsole                // native console call (Windows)
)

func (s Source) String() string {
	switch s {
	case SourceTerminfo:
		return "terminfo"
	case SourceBuiltin:
		return "builtin"
	case SourceConsole:
		return "console"
	}
	return "none"
}

// Handle is a resolved capability
type Handle struct {
	Cap      Cap
	Template string // terminfo-syntax template; empty for console calls
	Source   Source
}

// Supported reports whether invoking the handle has any effect
func (h Handle) Supported() bool {
	return h.Source != SourceNone
}

// Capabilities is the resolved capability table of one device
type Capabilities struct {
	Term     string
	Mode     ColorMode
	Fallback bool // true when the terminal type was not found

	handles [capCount]Handle
	fgRGB   string
	bgRGB   string
}

// expander evaluates terminfo parameter templates
var expander = &terminfo.Terminfo{}

// Resolve returns the handle for c. Unsupported capabilities yield a no-op
// handle and a CapabilityError wrapping ErrUnsupported
func (c *Capabilities) Resolve(cp Cap) (Handle, error) {
	if cp >= capCount {
		return Handle{Cap: cp}, &CapabilityError{Term: c.Term, Cap: cp.String(), Err: ErrUnsupported}
	}
	h := c.handles[cp]
	if !h.Supported() {
		return h, &CapabilityError{Term: c.Term, Cap: cp.String(), Err: ErrUnsupported}
	}
	return h, nil
}

// ResolveName resolves a capability by terminfo name
func (c *Capabilities) ResolveName(name string) (Handle, error) {
	cp, ok := CapByName(name)
	if !ok {
		return Handle{Cap: capCount}, &CapabilityError{Term: c.Term, Cap: name, Err: ErrUnsupported}
	}
	return c.Resolve(cp)
}

// Supports reports whether cp resolves to something other than a no-op
func (c *Capabilities) Supports(cp Cap) bool {
	return cp < capCount && c.handles[cp].Supported()
}

// TrueColor reports whether RGB colors are passed through unchanged
func (c *Capabilities) TrueColor() bool {
	return c.Mode == ColorModeTrueColor
}

// Expand returns the byte sequence for invoking cp with params
func (c *Capabilities) Expand(cp Cap, params ...int) ([]byte, error) {
	if _, err := c.Resolve(cp); err != nil {
		return nil, err
	}
	return c.AppendCap(nil, cp, params...), nil
}

// AppendCap appends the byte sequence for cp to dst. Unsupported
// capabilities append nothing. CapSetFg and CapSetBg take one Color
// parameter which is clamped to the resolved color depth
func (c *Capabilities) AppendCap(dst []byte, cp Cap, params ...int) []byte {
	if cp >= capCount {
		return dst
	}
	h := c.handles[cp]
	if !h.Supported() || h.Template == "" {
		return dst
	}

	switch cp {
	case CapSetFg, CapSetBg:
		if len(params) == 0 {
			return dst
		}
		return c.appendColor(dst, cp, Color(params[0]))
	case CapCursorPos:
		row, col := 0, 0
		if len(params) > 1 {
			row, col = params[0], params[1]
		}
		return append(dst, expander.TParm(h.Template, row, col)...)
	}

	if len(params) == 0 {
		if !strings.Contains(h.Template, "%") {
			return append(dst, h.Template...)
		}
		return append(dst, expander.TParm(h.Template)...)
	}
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p
	}
	return append(dst, expander.TParm(h.Template, args...)...)
}

func (c *Capabilities) appendColor(dst []byte, cp Cap, col Color) []byte {
	col = col.Downgrade(c.Mode)
	if col == ColorDefault {
		return dst
	}

	if col.IsRGB() {
		tmpl := c.fgRGB
		if cp == CapSetBg {
			tmpl = c.bgRGB
		}
		if tmpl != "" {
			rgb := col.RGB()
			return append(dst, expander.TParm(tmpl, int(rgb.R), int(rgb.G), int(rgb.B))...)
		}
		col = PaletteColor(int(RGBTo256(col.RGB())))
	}

	return append(dst, expander.TParm(c.handles[cp].Template, col.Index())...)
}

// stripPadding removes terminfo $<n> delay markers. Output is buffered and
// flushed as a unit, so delays are not honored
func stripPadding(s string) string {
	for {
		beg := strings.Index(s, "$<")
		if beg < 0 {
			return s
		}
		end := strings.IndexByte(s[beg:], '>')
		if end < 0 {
			return s
		}
		s = s[:beg] + s[beg+end+1:]
	}
}
