// Package core holds process-level support shared by the commands: panic
// recovery that leaves the terminal usable, and debug logging setup
package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"

	"github.com/lixenwraith/termkit/terminal"
)

// crashTerminal is closed by HandleCrash before printing
var crashTerminal atomic.Pointer[terminal.Terminal]

// SetCrashTerminal registers the terminal restored on crash. nil clears it
func SetCrashTerminal(t *terminal.Terminal) {
	crashTerminal.Store(t)
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}
	reportCrash(r, debug.Stack())
	os.Exit(1)
}

func reportCrash(r any, stack []byte) {
	if t := crashTerminal.Swap(nil); t != nil {
		// Close restores mode and output; raw bytes may still be pending
		t.Close()
	}
	terminal.EmergencyReset(os.Stdout)

	os.Stdout.Sync()
	os.Stderr.Sync()

	// \r\n: the mode may still be raw if the reset failed
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", stack)
	os.Stderr.Sync()
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
