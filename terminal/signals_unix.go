//go:build unix

package terminal

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// reportable maps Unix signals onto the reportable Signal values
var reportable = map[syscall.Signal]Signal{
	syscall.SIGINT:  SignalInterrupt,
	syscall.SIGTSTP: SignalSuspend,
	syscall.SIGQUIT: SignalQuit,
}

// watchedSignals lists the signals the terminal handles. SIGINT and SIGQUIT
// are always caught while the tty generates them, so the default action
// never leaves the tty raw
func watchedSignals(cfg *Config) []os.Signal {
	sigs := []os.Signal{syscall.SIGWINCH, syscall.SIGCONT, syscall.SIGTERM, syscall.SIGHUP}
	for sig, s := range reportable {
		fatal := sig == syscall.SIGINT || sig == syscall.SIGQUIT
		if cfg.ReportSignals.Contains(s) || (fatal && !cfg.BlockSignals) {
			sigs = append(sigs, sig)
		}
	}
	return sigs
}

// startSignals watches SIGWINCH, SIGCONT, the termination signals and the
// reported signals, turning them into events. Returns the stop function
func startSignals(t *Terminal) func() {
	sigs := watchedSignals(&t.cfg)

	sigCh := make(chan os.Signal, 8)
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	signal.Notify(sigCh, sigs...)

	go t.watchSignals(sigCh, stopCh, doneCh)

	return func() {
		signal.Stop(sigCh)
		close(stopCh)
		<-doneCh
	}
}

func (t *Terminal) watchSignals(sigCh <-chan os.Signal, stopCh <-chan struct{}, doneCh chan<- struct{}) {
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
			sig, ok := s.(syscall.Signal)
			if !ok {
				continue
			}
			t.log.Debug("signal received", zap.Stringer("signal", sig))
			t.handleSignal(sig)
		}
	}
}

func (t *Terminal) handleSignal(sig syscall.Signal) {
	switch sig {
	case syscall.SIGWINCH:
		t.postSignal(t.resized())

	case syscall.SIGCONT:
		// The shell restored cooked mode while the process was stopped
		if err := t.raw.Reapply(); err != nil {
			t.log.Warn("raw mode reapply failed", zap.Error(err))
		}
		if t.cfg.ReportSignals.Contains(SignalContinue) {
			t.postSignal(Event{Type: EventSignal, Signal: SignalContinue})
		} else {
			t.dev.wake()
		}

	case syscall.SIGTERM, syscall.SIGHUP:
		t.die(sig)

	default:
		s, ok := reportable[sig]
		switch {
		case !ok:
		case t.cfg.ReportSignals.Contains(s):
			t.postSignal(Event{Type: EventSignal, Signal: s})
		case sig == syscall.SIGINT || sig == syscall.SIGQUIT:
			t.die(sig)
		}
	}
}

// die restores the terminal, then lets sig take its default action.
// Close would wait on the signal goroutine, so it is not used here
func (t *Terminal) die(sig syscall.Signal) {
	t.log.Debug("fatal signal, restoring terminal", zap.Stringer("signal", sig))
	t.restoreOutput()
	t.raw.Restore()
	signal.Reset(sig)
	unix.Kill(os.Getpid(), sig)
}
