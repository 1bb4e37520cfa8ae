// @focus: #sys { term } #mode { raw }
package terminal

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ModeConfig selects the line discipline while raw mode is active.
// The zero value is full raw mode: no echo, no line buffering, control
// characters delivered as input, output buffered until the next read
type ModeConfig struct {
	Echo         bool // echo typed characters
	Canonical    bool // line buffering by the device
	Signals      bool // Ctrl-C, Ctrl-Z, Ctrl-\ raise signals
	ControlFlow  bool // Ctrl-S/Ctrl-Q suspend and resume output
	FlushOnWrite bool // every Write reaches the device immediately
}

// modeState is a saved device mode: termios on Unix, console mode on Windows
type modeState any

// modeDevice is the platform mode primitive. setMode is a single
// atomic device call
type modeDevice interface {
	getMode() (modeState, error)
	setMode(modeState) error
	// makeMode derives the mode for cfg from the original mode
	makeMode(orig modeState, cfg ModeConfig) modeState
}

// RawController enters and restores raw mode. Entries nest: the
// original mode is saved by the outermost Enter and restored by the
// matching Release, inner pairs only track depth
type RawController struct {
	mu       sync.Mutex
	dev      modeDevice
	depth    int
	gen      uint64 // bumped by Restore; older guards are stale
	orig     modeState
	prepared modeState
	cfg      ModeConfig
	log      *zap.Logger
}

func newRawController(dev modeDevice, log *zap.Logger) *RawController {
	if log == nil {
		log = zap.NewNop()
	}
	return &RawController{dev: dev, log: log}
}

// Guard is a scoped raw mode entry. Release it exactly once, normally
// via defer; further calls are no-ops
type Guard struct {
	c        *RawController
	gen      uint64
	released atomic.Bool
}

// Enter applies cfg, saving the original mode if this is the outermost
// entry. A nested Enter keeps the active configuration
func (c *RawController) Enter(cfg ModeConfig) (*Guard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.depth > 0 {
		c.depth++
		if cfg != c.cfg {
			c.log.Debug("nested raw mode entry keeps outer config", zap.Int("depth", c.depth))
		}
		return &Guard{c: c, gen: c.gen}, nil
	}

	orig, err := c.dev.getMode()
	if err != nil {
		return nil, &ModeError{Op: "get", Err: err}
	}
	prepared := c.dev.makeMode(orig, cfg)
	if err := c.dev.setMode(prepared); err != nil {
		return nil, &ModeError{Op: "set", Err: err}
	}

	c.orig = orig
	c.prepared = prepared
	c.cfg = cfg
	c.depth = 1
	c.log.Debug("raw mode entered",
		zap.Bool("echo", cfg.Echo),
		zap.Bool("canonical", cfg.Canonical),
		zap.Bool("signals", cfg.Signals))
	return &Guard{c: c, gen: c.gen}, nil
}

// Release leaves this entry; the outermost release restores the original
// mode. Idempotent
func (g *Guard) Release() error {
	if g == nil || !g.released.CompareAndSwap(false, true) {
		return nil
	}
	return g.c.leave(g.gen)
}

func (c *RawController) leave(gen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.depth == 0 || gen != c.gen {
		return nil
	}
	c.depth--
	if c.depth > 0 {
		return nil
	}
	return c.restoreLocked()
}

func (c *RawController) restoreLocked() error {
	orig := c.orig
	c.orig = nil
	c.prepared = nil
	if orig == nil {
		return nil
	}
	if err := c.dev.setMode(orig); err != nil {
		c.log.Warn("raw mode restore failed", zap.Error(err))
		return &ModeError{Op: "restore", Err: err}
	}
	c.log.Debug("raw mode restored")
	return nil
}

// Restore puts the original mode back regardless of nesting depth.
// Outstanding guards become no-ops
func (c *RawController) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.depth = 0
	c.gen++
	return c.restoreLocked()
}

// Reapply sets the prepared mode again. The shell resets the device
// while the process is stopped, so SIGCONT calls this
func (c *RawController) Reapply() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.depth == 0 || c.prepared == nil {
		return nil
	}
	if err := c.dev.setMode(c.prepared); err != nil {
		return &ModeError{Op: "set", Err: err}
	}
	c.log.Debug("raw mode reapplied")
	return nil
}

// Active reports whether raw mode is entered
func (c *RawController) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth > 0
}

// Depth returns the nesting depth
func (c *RawController) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}

// Config returns the active configuration
func (c *RawController) Config() ModeConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}
