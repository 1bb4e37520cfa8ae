package terminal

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// readResult is the outcome of one device wait
type readResult struct {
	data   []byte  // raw input of byte-stream devices
	events []Event // decoded input of console devices
	woke   bool    // wake or a signal ended the wait
	eof    bool
}

// device abstracts the platform terminal: a tty fd pair on Unix, console
// handles on Windows
type device interface {
	// id identifies the device for the process-wide registry
	id() string
	name() string
	mode() modeDevice
	size() (width, height int, err error)

	// capabilities resolves the capability table for this device
	capabilities(cfg *Config, log *zap.Logger) *Capabilities
	// invoker returns the capability executor. A *seqInvoker buffers
	// bytes that the terminal flushes through write
	invoker(caps *Capabilities, charset encoding.Encoding) Invoker

	// write sends output bytes, looping over short writes
	write(p []byte) error
	// read waits up to timeout (negative blocks) for input or a wake
	read(timeout time.Duration) (readResult, error)
	// wake makes a blocked read return promptly with woke set
	wake()

	close() error
}
