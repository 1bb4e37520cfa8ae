//go:build linux || darwin

package terminal

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/lixenwraith/termkit/terminal/edit"
)

// ptyHarness is a pseudo terminal: the Terminal runs on tty, the test
// types into master and collects what the Terminal wrote
type ptyHarness struct {
	master *os.File
	tty    *os.File

	mu  sync.Mutex
	out bytes.Buffer
}

func newPTY(t *testing.T) *ptyHarness {
	t.Helper()
	master, tty, err := pty.Open()
	require.NoError(t, err)
	require.NoError(t, pty.Setsize(master, &pty.Winsize{Rows: 24, Cols: 80}))

	h := &ptyHarness{master: master, tty: tty}
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := master.Read(buf)
			if n > 0 {
				h.mu.Lock()
				h.out.Write(buf[:n])
				h.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() {
		master.Close()
		tty.Close()
	})
	return h
}

func (h *ptyHarness) typeInput(t *testing.T, s string) {
	t.Helper()
	_, err := h.master.Write([]byte(s))
	require.NoError(t, err)
}

func (h *ptyHarness) output() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.out.String()
}

func (h *ptyHarness) waitOutput(t *testing.T, want string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return strings.Contains(h.output(), want)
	}, 2*time.Second, 10*time.Millisecond, "output never contained %q; got %q", want, h.output())
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Term = "xterm-256color"
	cfg.ColorMode = ColorMode256
	cfg.Keypad = false
	cfg.Charset = "UTF-8"
	cfg.EscapeDelay = 20 * time.Millisecond
	return cfg
}

func openPTY(t *testing.T, h *ptyHarness, cfg *Config) *Terminal {
	t.Helper()
	term, err := OpenDevice(h.tty, h.tty, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { term.Close() })
	return term
}

func TestOpenDevice_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	require.NoError(t, err)
	defer f.Close()

	_, err = OpenDevice(f, f, testConfig())
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestTerminal_AlreadyOpen(t *testing.T) {
	h := newPTY(t)
	term, err := OpenDevice(h.tty, h.tty, testConfig())
	require.NoError(t, err)

	_, err = OpenDevice(h.tty, h.tty, testConfig())
	assert.ErrorIs(t, err, ErrAlreadyOpen)

	require.NoError(t, term.Close())
	require.NoError(t, term.Close(), "close is idempotent")

	again, err := OpenDevice(h.tty, h.tty, testConfig())
	require.NoError(t, err, "the device is released on close")
	require.NoError(t, again.Close())
}

func TestTerminal_CloseRestoresMode(t *testing.T) {
	h := newPTY(t)
	fd := int(h.tty.Fd())
	before, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	require.NoError(t, err)
	require.NotZero(t, before.Lflag&unix.ECHO, "pty starts in cooked mode")

	term := openPTY(t, h, testConfig())
	during, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	require.NoError(t, err)
	assert.Zero(t, during.Lflag&unix.ECHO)
	assert.Zero(t, during.Lflag&unix.ICANON)
	assert.Zero(t, during.Lflag&unix.ISIG, "signals are blocked by default")
	assert.True(t, term.Raw().Active())

	require.NoError(t, term.Close())
	after, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	require.NoError(t, err)
	assert.Equal(t, before.Lflag, after.Lflag)
	assert.Equal(t, before.Iflag, after.Iflag)
	assert.Equal(t, before.Cc, after.Cc)
}

func TestTerminal_NoRawMode(t *testing.T) {
	h := newPTY(t)
	cfg := testConfig()
	cfg.RawMode = false
	term := openPTY(t, h, cfg)
	assert.False(t, term.Raw().Active())

	termios, err := unix.IoctlGetTermios(int(h.tty.Fd()), ioctlGetTermios)
	require.NoError(t, err)
	assert.NotZero(t, termios.Lflag&unix.ICANON)
}

func TestTerminal_ReadEventTimeout(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	start := time.Now()
	_, err := term.ReadEvent(100 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	// Zero timeout polls once
	_, err = term.ReadEvent(0)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTerminal_ReadEventKeys(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	h.typeInput(t, "a\x1b[A\x03")

	ev, err := term.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 'a', ev.Rune)

	ev, err = term.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, KeyUp, ev.Key)

	ev, err = term.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, KeyCtrlC, ev.Key, "Ctrl-C is a key while signals are blocked")
}

func TestTerminal_LoneEscape(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	h.typeInput(t, "\x1b")
	start := time.Now()
	ev, err := term.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, KeyEscape, ev.Key)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond, "escape waits out the grace period")
}

func TestTerminal_UnterminatedPaste(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	h.typeInput(t, "\x1b[200~abc")
	start := time.Now()
	ev, err := term.ReadEvent(3 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, EventPaste, ev.Type)
	assert.Equal(t, "abc", ev.Text)
	assert.GreaterOrEqual(t, time.Since(start), DefaultPasteTimeout/2, "a paste outlasts the escape delay")

	h.typeInput(t, "q")
	ev, err = term.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 'q', ev.Rune)
}

func TestTerminal_Interrupt(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	go func() {
		time.Sleep(50 * time.Millisecond)
		term.Interrupt()
	}()
	_, err := term.ReadEvent(-1)
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestTerminal_EOF(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	h.master.Close()
	_, err := term.ReadEvent(time.Second)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerminal_ClosedOperations(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())
	require.NoError(t, term.Close())

	_, err := term.ReadEvent(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, term.WriteString("x"), ErrClosed)
	_, err = term.ReadLine("> ", nil)
	assert.ErrorIs(t, err, ErrClosed)
	term.Interrupt()
}

func TestTerminal_SizeAndResize(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	w, hgt := term.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 24, hgt)

	require.NoError(t, pty.Setsize(h.master, &pty.Winsize{Rows: 30, Cols: 100}))
	term.handleSignal(syscall.SIGWINCH)
	term.handleSignal(syscall.SIGWINCH)

	ev, err := term.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, EventResize, ev.Type)
	assert.Equal(t, 100, ev.Width)
	assert.Equal(t, 30, ev.Height)

	_, err = term.ReadEvent(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout, "resize events coalesce")
}

func TestTerminal_ReportedSignal(t *testing.T) {
	h := newPTY(t)
	cfg := testConfig()
	cfg.ReportSignals = NewSignalSet(SignalInterrupt)
	term := openPTY(t, h, cfg)

	term.handleSignal(syscall.SIGINT)
	ev, err := term.ReadEvent(time.Second)
	require.NoError(t, err)
	assert.Equal(t, EventSignal, ev.Type)
	assert.Equal(t, SignalInterrupt, ev.Signal)
}

func TestWatchedSignals(t *testing.T) {
	has := func(sigs []os.Signal, sig os.Signal) bool {
		for _, s := range sigs {
			if s == sig {
				return true
			}
		}
		return false
	}

	cfg := testConfig()
	sigs := watchedSignals(cfg)
	assert.False(t, has(sigs, syscall.SIGINT), "the tty does not raise SIGINT while signals are blocked")
	assert.True(t, has(sigs, syscall.SIGTERM))

	cfg.BlockSignals = false
	sigs = watchedSignals(cfg)
	assert.True(t, has(sigs, syscall.SIGINT))
	assert.True(t, has(sigs, syscall.SIGQUIT))
	assert.False(t, has(sigs, syscall.SIGTSTP))

	cfg.BlockSignals = true
	cfg.ReportSignals = NewSignalSet(SignalSuspend)
	assert.True(t, has(watchedSignals(cfg), syscall.SIGTSTP))
}

// signalChildEnv names the tty a re-executed test binary opens before
// interrupting itself
const signalChildEnv = "TK_SIGNAL_CHILD_TTY"

func TestTerminal_UnreportedInterruptRestores(t *testing.T) {
	if name := os.Getenv(signalChildEnv); name != "" {
		f, err := os.OpenFile(name, os.O_RDWR, 0)
		if err != nil {
			os.Exit(3)
		}
		cfg := testConfig()
		cfg.BlockSignals = false
		if _, err := OpenDevice(f, f, cfg); err != nil {
			os.Exit(4)
		}
		unix.Kill(os.Getpid(), syscall.SIGINT)
		time.Sleep(5 * time.Second)
		os.Exit(5)
	}

	h := newPTY(t)
	fd := int(h.tty.Fd())

	cmd := exec.Command(os.Args[0], "-test.run=^TestTerminal_UnreportedInterruptRestores$")
	cmd.Env = append(os.Environ(), signalChildEnv+"="+h.tty.Name())
	err := cmd.Run()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	require.True(t, status.Signaled(), "child exited with %v", err)
	assert.Equal(t, syscall.SIGINT, status.Signal())

	after, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	require.NoError(t, err)
	assert.NotZero(t, after.Lflag&unix.ECHO, "echo restored")
	assert.NotZero(t, after.Lflag&unix.ICANON, "canonical mode restored")
}

func TestTerminal_WriteFlush(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	n, err := term.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, term.SetStyle(Style{Fg: ColorRed, Attrs: AttrBold}))
	require.NoError(t, term.WriteString("red"))
	require.NoError(t, term.MoveTo(4, 2))
	require.NoError(t, term.Flush())

	h.waitOutput(t, "hello")
	h.waitOutput(t, "\x1b[1m\x1b[31mred")
	h.waitOutput(t, "\x1b[3;5H")
}

func TestTerminal_PrepareAndRestoreModes(t *testing.T) {
	h := newPTY(t)
	cfg := testConfig()
	cfg.Mouse = true
	cfg.BracketedPaste = true
	term := openPTY(t, h, cfg)

	h.waitOutput(t, "\x1b[?1000h\x1b[?1006h\x1b[?1002h")
	h.waitOutput(t, "\x1b[?2004h")

	require.NoError(t, term.SetCursorMode(CursorInvisible))
	require.NoError(t, term.EnterScreen())
	assert.True(t, term.InScreen())
	require.NoError(t, term.Close())

	h.waitOutput(t, "\x1b[?2004l")
	h.waitOutput(t, "\x1b[?1000l")
	h.waitOutput(t, "\x1b[?25h")
}

func TestTerminal_ReadLine(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())
	hist := edit.NewHistory(0)

	h.typeInput(t, "hx\x7fi\r")
	line, err := term.ReadLine("> ", hist)
	require.NoError(t, err)
	assert.Equal(t, "hi", line)
	assert.Equal(t, []string{"hi"}, hist.Entries())
	h.waitOutput(t, "> hi")

	// Up recalls the previous line
	h.typeInput(t, "\x1b[A!\r")
	line, err = term.ReadLine("> ", hist)
	require.NoError(t, err)
	assert.Equal(t, "hi!", line)

	assert.True(t, term.Raw().Active(), "ReadLine leaves the outer raw mode in place")
}

func TestTerminal_ReadLineInterruptAndEOF(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	h.typeInput(t, "abc\x03")
	_, err := term.ReadLine("", nil)
	assert.ErrorIs(t, err, ErrInterrupted)
	h.waitOutput(t, "^C")

	h.typeInput(t, "\x04")
	_, err = term.ReadLine("", nil)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerminal_ReadLineCookedTerminal(t *testing.T) {
	h := newPTY(t)
	cfg := testConfig()
	cfg.RawMode = false
	term := openPTY(t, h, cfg)

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := term.ReadLine("$ ", nil)
		done <- result{line, err}
	}()

	// The prompt is drawn after raw mode is entered
	h.waitOutput(t, "$ ")
	h.typeInput(t, "ok\r")

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "ok", r.line)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not return")
	}
	assert.False(t, term.Raw().Active(), "raw mode is left after the line")
}

func TestTerminal_WriteDuringReadLine(t *testing.T) {
	h := newPTY(t)
	term := openPTY(t, h, testConfig())

	done := make(chan struct{})
	var line string
	var err error
	go func() {
		defer close(done)
		line, err = term.ReadLine("> ", nil)
	}()

	h.typeInput(t, "ab")
	h.waitOutput(t, "> ab")
	require.NoError(t, term.WriteString("tick"))
	h.waitOutput(t, "tick")

	h.typeInput(t, "\r")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not return")
	}
	require.NoError(t, err)
	assert.Equal(t, "ab", line)

	out := h.output()
	i := strings.LastIndex(out, "tick")
	require.GreaterOrEqual(t, i, 0)
	assert.Contains(t, out[i:], "> ab", "the prompt is redrawn below the written text")
}

func TestTerminalService_Events(t *testing.T) {
	h := newPTY(t)
	cfg := testConfig()
	cfg.Device = h.tty.Name()

	svc := NewService()
	assert.Equal(t, "terminal", svc.Name())
	assert.Error(t, svc.Start(), "start before init")

	require.NoError(t, svc.Init(cfg))
	require.NoError(t, svc.Start())

	h.typeInput(t, "x")
	select {
	case ev := <-svc.Events():
		assert.Equal(t, 'x', ev.Rune)
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}

	require.NoError(t, svc.Stop())
	require.NoError(t, svc.Stop())
	assert.False(t, svc.Terminal().Raw().Active())
}

func TestTerminalService_InitError(t *testing.T) {
	cfg := testConfig()
	cfg.Device = "/nonexistent/tty"
	err := NewService().Init(cfg)
	var openErr *OpenError
	assert.True(t, errors.As(err, &openErr))
}
