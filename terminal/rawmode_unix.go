//go:build unix

package terminal

import (
	"golang.org/x/sys/unix"
)

// ttyMode is the termios mode device of one fd
type ttyMode struct {
	fd int
}

func (m ttyMode) getMode() (modeState, error) {
	return unix.IoctlGetTermios(m.fd, ioctlGetTermios)
}

func (m ttyMode) setMode(s modeState) error {
	return unix.IoctlSetTermios(m.fd, ioctlSetTermios, s.(*unix.Termios))
}

func (m ttyMode) makeMode(orig modeState, cfg ModeConfig) modeState {
	t := *orig.(*unix.Termios)
	return rawTermios(&t, cfg)
}

// rawTermios edits t in place for cfg. Output processing (OPOST) stays on
// so '\n' still returns the carriage
func rawTermios(t *unix.Termios, cfg ModeConfig) *unix.Termios {
	// No CR/LF translation: Enter arrives as '\r'
	t.Iflag &^= unix.INLCR | unix.ICRNL

	if cfg.Canonical {
		t.Lflag |= unix.ICANON
	} else {
		t.Lflag &^= unix.ICANON
	}
	if cfg.Echo {
		t.Lflag |= unix.ECHO
	} else {
		t.Lflag &^= unix.ECHO
	}
	if cfg.Signals {
		t.Lflag |= unix.ISIG
	} else {
		t.Lflag &^= unix.ISIG
	}
	if cfg.ControlFlow {
		t.Iflag |= unix.IXON
	} else {
		t.Iflag &^= unix.IXON
	}

	// Reads return whatever is available, poll does the waiting
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	return t
}
