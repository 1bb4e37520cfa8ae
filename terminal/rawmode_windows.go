//go:build windows

package terminal

import (
	"golang.org/x/sys/windows"
)

// consoleMode is the mode device of a console input handle
type consoleMode struct {
	h     windows.Handle
	mouse bool
}

func (m consoleMode) getMode() (modeState, error) {
	var mode uint32
	if err := windows.GetConsoleMode(m.h, &mode); err != nil {
		return nil, err
	}
	return mode, nil
}

func (m consoleMode) setMode(s modeState) error {
	return windows.SetConsoleMode(m.h, s.(uint32))
}

func (m consoleMode) makeMode(orig modeState, cfg ModeConfig) modeState {
	mode := orig.(uint32)
	mode |= windows.ENABLE_EXTENDED_FLAGS

	// Echo requires line input on the console
	if cfg.Canonical {
		mode |= windows.ENABLE_LINE_INPUT
		if cfg.Echo {
			mode |= windows.ENABLE_ECHO_INPUT
		} else {
			mode &^= windows.ENABLE_ECHO_INPUT
		}
	} else {
		mode &^= windows.ENABLE_LINE_INPUT | windows.ENABLE_ECHO_INPUT
	}

	if cfg.Signals {
		mode |= windows.ENABLE_PROCESSED_INPUT
	} else {
		mode &^= windows.ENABLE_PROCESSED_INPUT
	}
	if m.mouse {
		mode |= windows.ENABLE_MOUSE_INPUT
	} else {
		mode &^= windows.ENABLE_MOUSE_INPUT
	}

	// Quick edit swallows mouse clicks for selection
	mode &^= windows.ENABLE_QUICK_EDIT_MODE
	mode |= windows.ENABLE_WINDOW_INPUT
	// Input arrives as records, not VT sequences
	mode &^= windows.ENABLE_VIRTUAL_TERMINAL_INPUT
	return mode
}
