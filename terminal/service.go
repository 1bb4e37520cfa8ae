package terminal

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lixenwraith/termkit/service"
)

var _ service.Service = (*TerminalService)(nil)

// pollInterval bounds each read so the pump notices Stop
const pollInterval = 100 * time.Millisecond

// TerminalService manages terminal lifecycle and pumps input events onto
// a channel
type TerminalService struct {
	term    *Terminal
	cfg     *Config
	eventCh chan Event
	errCh   chan error
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewService creates a new terminal service
func NewService() *TerminalService {
	return &TerminalService{
		eventCh: make(chan Event, 256),
		errCh:   make(chan error, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Name implements Service
func (s *TerminalService) Name() string {
	return "terminal"
}

// Dependencies implements Service
func (s *TerminalService) Dependencies() []string {
	return nil
}

// Init implements Service
// args[0]: *Config or ColorMode (optional, defaults to DefaultConfig())
func (s *TerminalService) Init(args ...any) error {
	s.cfg = DefaultConfig()
	if len(args) > 0 {
		switch a := args[0].(type) {
		case *Config:
			if a != nil {
				s.cfg = a
			}
		case ColorMode:
			s.cfg.ColorMode = a
		}
	}

	t, err := Open(s.cfg)
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	s.term = t
	return nil
}

// Start implements Service - launches input polling goroutine
func (s *TerminalService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.term == nil {
		return errors.New("terminal service: Start before Init")
	}
	if s.running {
		return nil
	}
	s.running = true

	go s.pollLoop()
	return nil
}

// pollLoop reads input events until stop signal
func (s *TerminalService) pollLoop() {
	defer close(s.doneCh)

	defer func() {
		if r := recover(); r != nil {
			s.term.Raw().Restore()
			EmergencyReset(os.Stdout)
			os.Stdout.Sync()
			os.Stderr.Sync()
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mTERMINAL POLL CRASHED: %v\x1b[0m\r\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Stderr.Sync()
			os.Exit(1)
		}
	}()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		ev, err := s.term.ReadEvent(pollInterval)
		switch {
		case err == nil:
		case errors.Is(err, ErrTimeout), errors.Is(err, ErrInterrupted):
			continue
		default:
			// EOF, closed or device failure ends the pump
			select {
			case s.errCh <- err:
			default:
			}
			close(s.eventCh)
			return
		}

		select {
		case s.eventCh <- ev:
		case <-s.stopCh:
			return
		}
	}
}

// Stop implements Service - signals stop and restores terminal
func (s *TerminalService) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	running := s.running
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	if running {
		// Unblock a pending read
		s.term.Interrupt()
		<-s.doneCh
	}

	if s.term != nil {
		return s.term.Close()
	}
	return nil
}

// Terminal returns the wrapped terminal instance
func (s *TerminalService) Terminal() *Terminal {
	return s.term
}

// Events returns the input event channel. It is closed when input ends
func (s *TerminalService) Events() <-chan Event {
	return s.eventCh
}

// Err returns the error that ended the pump, if any
func (s *TerminalService) Err() <-chan error {
	return s.errCh
}
