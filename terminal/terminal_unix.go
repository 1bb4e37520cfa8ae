//go:build unix

package terminal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
	"golang.org/x/text/encoding"
)

// ttyDevice is a tty fd pair plus a self-pipe used to wake poll
type ttyDevice struct {
	in    *os.File
	out   *os.File
	inFd  int
	outFd int
	owned bool // opened here, closed on close

	ident string
	path  string

	pipeR *os.File
	pipeW *os.File
	wakeR int
	wakeW int
}

// openDevice picks stdin/stdout when both are terminals, otherwise the
// configured device or /dev/tty
func openDevice(cfg *Config) (device, error) {
	if cfg.Device == "" &&
		term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return newTTYDevice(os.Stdin, os.Stdout, false)
	}

	path := cfg.Device
	if path == "" {
		path = "/dev/tty"
	}
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, &OpenError{Device: path, Err: err}
	}
	dev, err := newTTYDevice(f, f, true)
	if err != nil {
		f.Close()
		return nil, err
	}
	return dev, nil
}

// OpenDevice opens a Terminal over an existing file pair, typically a
// pty in tests. in must be a terminal; the files stay owned by the caller
func OpenDevice(in, out *os.File, cfg *Config) (*Terminal, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if out == nil {
		out = in
	}
	dev, err := newTTYDevice(in, out, false)
	if err != nil {
		return nil, err
	}
	return newTerminal(dev, cfg)
}

func newTTYDevice(in, out *os.File, owned bool) (*ttyDevice, error) {
	inFd := int(in.Fd())
	if !term.IsTerminal(inFd) {
		return nil, &OpenError{Device: in.Name(), Err: ErrNotTerminal}
	}

	var st unix.Stat_t
	if err := unix.Fstat(inFd, &st); err != nil {
		return nil, &OpenError{Device: in.Name(), Err: err}
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, &OpenError{Device: in.Name(), Err: fmt.Errorf("wake pipe: %w", err)}
	}
	wakeR, wakeW := int(r.Fd()), int(w.Fd())
	if err := unix.SetNonblock(wakeR, true); err == nil {
		err = unix.SetNonblock(wakeW, true)
	}
	if err != nil {
		r.Close()
		w.Close()
		return nil, &OpenError{Device: in.Name(), Err: fmt.Errorf("wake pipe: %w", err)}
	}

	return &ttyDevice{
		in:    in,
		out:   out,
		inFd:  inFd,
		outFd: int(out.Fd()),
		owned: owned,
		ident: fmt.Sprintf("%d:%d", uint64(st.Dev), uint64(st.Ino)),
		path:  in.Name(),
		pipeR: r,
		pipeW: w,
		wakeR: wakeR,
		wakeW: wakeW,
	}, nil
}

func (d *ttyDevice) id() string       { return d.ident }
func (d *ttyDevice) name() string     { return d.path }
func (d *ttyDevice) mode() modeDevice { return ttyMode{fd: d.inFd} }

func (d *ttyDevice) size() (int, int, error) {
	ws, err := unix.IoctlGetWinsize(d.outFd, unix.TIOCGWINSZ)
	if err != nil {
		ws, err = unix.IoctlGetWinsize(d.inFd, unix.TIOCGWINSZ)
		if err != nil {
			return 0, 0, err
		}
	}
	return int(ws.Col), int(ws.Row), nil
}

func (d *ttyDevice) capabilities(cfg *Config, log *zap.Logger) *Capabilities {
	return ResolveCapabilities(cfg.Term, cfg.ColorMode, log)
}

func (d *ttyDevice) invoker(caps *Capabilities, charset encoding.Encoding) Invoker {
	return &seqInvoker{caps: caps, charset: charset, out: make([]byte, 0, 4096)}
}

func (d *ttyDevice) write(p []byte) error {
	for len(p) > 0 {
		n, err := unix.Write(d.outFd, p)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return err
		}
		p = p[n:]
	}
	return nil
}

func (d *ttyDevice) read(timeout time.Duration) (readResult, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		ms := -1
		switch {
		case timeout == 0:
			ms = 0
		case timeout > 0:
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			// Round up so poll does not return just short of the deadline
			ms = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		fds := []unix.PollFd{
			{Fd: int32(d.inFd), Events: unix.POLLIN},
			{Fd: int32(d.wakeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(fds, ms)
		if err != nil {
			if err == unix.EINTR {
				// Signal handlers post through the wake pipe
				continue
			}
			return readResult{}, err
		}
		if n == 0 {
			return readResult{}, nil
		}

		var res readResult
		if fds[1].Revents&unix.POLLIN != 0 {
			d.drainWake()
			res.woke = true
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			buf := make([]byte, 256)
			rn, err := unix.Read(d.inFd, buf)
			switch {
			case err == unix.EINTR || err == unix.EAGAIN:
			case err != nil:
				if errors.Is(err, unix.EIO) {
					res.eof = true
					return res, nil
				}
				return res, err
			case rn == 0:
				res.eof = true
			default:
				res.data = buf[:rn]
			}
		} else if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			res.eof = true
		}
		if res.woke || res.eof || len(res.data) > 0 {
			return res, nil
		}
	}
}

func (d *ttyDevice) drainWake() {
	var b [64]byte
	for {
		n, err := unix.Read(d.wakeR, b[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (d *ttyDevice) wake() {
	// Full pipe already holds a pending wake
	unix.Write(d.wakeW, []byte{0})
}

func (d *ttyDevice) close() error {
	d.pipeR.Close()
	d.pipeW.Close()
	if d.owned {
		return d.in.Close()
	}
	return nil
}
