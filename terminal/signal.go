package terminal

import (
	"fmt"
	"strings"
)

// Signal is a process signal that may be reported as an event
type Signal uint8

const (
	SignalBreak     Signal = iota // Ctrl-Break; Windows only
	SignalContinue                // SIGCONT; Unix only
	SignalInterrupt               // SIGINT, CTRL_C_EVENT on Windows
	SignalResize                  // SIGWINCH, console buffer size event on Windows
	SignalSuspend                 // SIGTSTP; Unix only
	SignalQuit                    // SIGQUIT; Unix only

	numSignals
)

var signalNames = [numSignals]string{
	SignalBreak:     "break",
	SignalContinue:  "continue",
	SignalInterrupt: "interrupt",
	SignalResize:    "resize",
	SignalSuspend:   "suspend",
	SignalQuit:      "quit",
}

func (s Signal) String() string {
	if s < numSignals {
		return signalNames[s]
	}
	return "unknown"
}

// SignalSet is a bitmask of signals
type SignalSet uint8

// SignalSetAll contains every signal
const SignalSetAll = SignalSet(1<<numSignals - 1)

// NewSignalSet returns a set holding sigs
func NewSignalSet(sigs ...Signal) SignalSet {
	var s SignalSet
	for _, sig := range sigs {
		s = s.Insert(sig)
	}
	return s
}

// Contains reports whether sig is in the set
func (s SignalSet) Contains(sig Signal) bool {
	return sig < numSignals && s&(1<<sig) != 0
}

// Insert returns the set with sig added
func (s SignalSet) Insert(sig Signal) SignalSet {
	if sig >= numSignals {
		return s
	}
	return s | 1<<sig
}

// Remove returns the set with sig removed
func (s SignalSet) Remove(sig Signal) SignalSet {
	return s &^ (1 << sig)
}

// Empty reports whether no signal is set
func (s SignalSet) Empty() bool {
	return s&SignalSetAll == 0
}

func (s SignalSet) String() string {
	var parts []string
	for sig := Signal(0); sig < numSignals; sig++ {
		if s.Contains(sig) {
			parts = append(parts, sig.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// UnmarshalText reads a comma-separated list of signal names
func (s *SignalSet) UnmarshalText(text []byte) error {
	var set SignalSet
	for _, name := range strings.Split(string(text), ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == "all" {
			set = SignalSetAll
			continue
		}
		found := false
		for sig, n := range signalNames {
			if n == name {
				set = set.Insert(Signal(sig))
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown signal %q", name)
		}
	}
	*s = set
	return nil
}
