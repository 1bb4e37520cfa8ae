//go:build windows

package terminal

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"go.uber.org/zap"
)

// startSignals forwards console control events. Resize arrives as a
// console input record, not a signal
func startSignals(t *Terminal) func() {
	sigCh := make(chan os.Signal, 4)
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	reported := t.cfg.ReportSignals.Contains(SignalInterrupt) || t.cfg.ReportSignals.Contains(SignalBreak)
	sigs := []os.Signal{syscall.SIGTERM}
	if reported || !t.cfg.BlockSignals {
		sigs = append(sigs, os.Interrupt)
	}
	signal.Notify(sigCh, sigs...)

	go func() {
		defer close(doneCh)
		defer func() {
			if r := recover(); r != nil {
				t.raw.Restore()
				EmergencyReset(os.Stdout)
				fmt.Fprintf(os.Stderr, "\r\n\x1b[31mSIGNAL HANDLER CRASHED: %v\x1b[0m\r\n", r)
				fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
				os.Exit(1)
			}
		}()

		for {
			select {
			case <-stopCh:
				return
			case s := <-sigCh:
				t.log.Debug("console control event", zap.Stringer("signal", s))
				if s == syscall.SIGTERM || !reported {
					t.restoreOutput()
					t.raw.Restore()
					os.Exit(1)
				}
				// Ctrl-C and Ctrl-Break both arrive as os.Interrupt
				sig := SignalInterrupt
				if !t.cfg.ReportSignals.Contains(SignalInterrupt) {
					sig = SignalBreak
				}
				t.postSignal(Event{Type: EventSignal, Signal: sig})
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(stopCh)
		<-doneCh
	}
}
