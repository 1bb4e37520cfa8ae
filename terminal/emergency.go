package terminal

import (
	"io"
	"os"
)

// EmergencyReset attempts to restore the terminal to a sane state without
// the capability table or an open Terminal. Call it from panic recovery
// when Close cannot run
func EmergencyReset(w io.Writer) {
	io.WriteString(w, resetSequence)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore the line discipline.
	// Best-effort; errors ignored in crash context
	resetTerminalMode()
}
