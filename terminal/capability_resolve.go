package terminal

import (
	"errors"
	"os"

	"github.com/gdamore/tcell/v2/terminfo"
	"github.com/gdamore/tcell/v2/terminfo/dynamic"
	_ "github.com/gdamore/tcell/v2/terminfo/extended"
	"go.uber.org/zap"
)

// lookupTerminfo finds the entry for term in the compiled-in database,
// then asks the system database via infocmp
func lookupTerminfo(term string) (*terminfo.Terminfo, error) {
	ti, err := terminfo.LookupTerminfo(term)
	if err == nil {
		return ti, nil
	}
	if !errors.Is(err, terminfo.ErrTermNotFound) {
		return nil, err
	}

	ti, _, derr := dynamic.LoadTerminfo(term)
	if derr != nil {
		return nil, err
	}
	terminfo.AddTerminfo(ti)
	// Re-run lookup so COLORTERM amendments apply to the new entry
	return terminfo.LookupTerminfo(term)
}

// terminfoTemplates extracts capability templates from an entry
func terminfoTemplates(ti *terminfo.Terminfo) [capCount]string {
	return [capCount]string{
		CapClear:             ti.Clear,
		CapCursorPos:         ti.SetCursor,
		CapShowCursor:        ti.ShowCursor,
		CapHideCursor:        ti.HideCursor,
		CapEnterCA:           ti.EnterCA,
		CapExitCA:            ti.ExitCA,
		CapEnterKeypad:       ti.EnterKeypad,
		CapExitKeypad:        ti.ExitKeypad,
		CapAttrOff:           ti.AttrOff,
		CapBold:              ti.Bold,
		CapDim:               ti.Dim,
		CapItalic:            ti.Italic,
		CapUnderline:         ti.Underline,
		CapBlink:             ti.Blink,
		CapReverse:           ti.Reverse,
		CapSetFg:             ti.SetFg,
		CapSetBg:             ti.SetBg,
		CapResetFgBg:         ti.ResetFgBg,
		CapEnableAutoMargin:  ti.EnableAutoMargin,
		CapDisableAutoMargin: ti.DisableAutoMargin,
	}
}

// ResolveCapabilities builds the capability table for terminal type term.
// An empty term reads $TERM. Capabilities missing from the entry, and every
// capability of an unknown type, resolve from the built-in ANSI set.
// mode ColorModeAuto derives the depth from the environment and the entry
func ResolveCapabilities(term string, mode ColorMode, log *zap.Logger) *Capabilities {
	if log == nil {
		log = zap.NewNop()
	}
	if term == "" {
		term = os.Getenv("TERM")
	}

	caps := &Capabilities{Term: term}

	if term == "dumb" {
		caps.Mode = ColorModeMono
		for cp, tmpl := range builtinASCII {
			if tmpl != "" {
				caps.handles[cp] = Handle{Cap: Cap(cp), Template: tmpl, Source: SourceBuiltin}
			} else {
				caps.handles[cp] = Handle{Cap: Cap(cp)}
			}
		}
		log.Debug("dumb terminal, ascii capabilities only")
		return caps
	}

	var templates [capCount]string
	entryColors := 16
	entryTrueColor := false

	ti, err := lookupTerminfo(term)
	if err != nil {
		caps.Fallback = true
		log.Debug("terminal type not found, using builtin capabilities",
			zap.String("term", term), zap.Error(err))
	} else {
		templates = terminfoTemplates(ti)
		entryColors = ti.Colors
		entryTrueColor = ti.TrueColor || ti.SetFgRGB != ""
		caps.fgRGB = stripPadding(ti.SetFgRGB)
		caps.bgRGB = stripPadding(ti.SetBgRGB)
	}

	var missing []string
	for cp := range templates {
		tmpl := stripPadding(templates[cp])
		if tmpl != "" {
			caps.handles[cp] = Handle{Cap: Cap(cp), Template: tmpl, Source: SourceTerminfo}
			continue
		}
		caps.handles[cp] = Handle{Cap: Cap(cp), Template: builtinANSI[cp], Source: SourceBuiltin}
		if !caps.Fallback {
			missing = append(missing, Cap(cp).String())
		}
	}
	if len(missing) > 0 {
		log.Debug("capabilities resolved from builtin set",
			zap.String("term", term), zap.Strings("caps", missing))
	}

	if mode == ColorModeAuto {
		mode = DetectColorMode()
	}
	if mode == ColorModeAuto {
		mode = colorModeFromCount(entryColors, entryTrueColor)
	}
	caps.Mode = mode

	if mode == ColorModeTrueColor {
		if caps.fgRGB == "" {
			caps.fgRGB = builtinFgRGB
		}
		if caps.bgRGB == "" {
			caps.bgRGB = builtinBgRGB
		}
	}
	// Entries with fewer colors than the chosen depth carry setaf templates
	// that cannot address the upper palette
	if caps.handles[CapSetFg].Source == SourceTerminfo && entryColors < min(mode.Colors(), 256) {
		caps.handles[CapSetFg].Template = builtinANSI[CapSetFg]
		caps.handles[CapSetBg].Template = builtinANSI[CapSetBg]
	}
	if mode == ColorModeMono {
		caps.handles[CapSetFg] = Handle{Cap: CapSetFg}
		caps.handles[CapSetBg] = Handle{Cap: CapSetBg}
	}

	log.Debug("capabilities resolved",
		zap.String("term", term),
		zap.Bool("fallback", caps.Fallback),
		zap.Stringer("colors", mode))
	return caps
}

// BuiltinCapabilities returns the built-in ANSI table at the given depth
func BuiltinCapabilities(mode ColorMode) *Capabilities {
	if mode == ColorModeAuto {
		mode = ColorMode256
	}
	caps := &Capabilities{Term: "builtin", Mode: mode, Fallback: true}
	for cp, tmpl := range builtinANSI {
		caps.handles[cp] = Handle{Cap: Cap(cp), Template: tmpl, Source: SourceBuiltin}
	}
	if mode == ColorModeTrueColor {
		caps.fgRGB = builtinFgRGB
		caps.bgRGB = builtinBgRGB
	}
	if mode == ColorModeMono {
		caps.handles[CapSetFg] = Handle{Cap: CapSetFg}
		caps.handles[CapSetBg] = Handle{Cap: CapSetBg}
	}
	return caps
}
