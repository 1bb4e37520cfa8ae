package terminal

import (
	"errors"
	"fmt"
)

// Sentinel errors. Timeout and Interrupted are control-flow results of
// blocking reads, not failures
var (
	ErrAlreadyOpen = errors.New("terminal already open")
	ErrNotTerminal = errors.New("not a terminal")
	ErrUnsupported = errors.New("capability unsupported")
	ErrTimeout     = errors.New("read timed out")
	ErrInterrupted = errors.New("read interrupted")
	ErrClosed      = errors.New("terminal closed")
)

// OpenError reports a failure to acquire the terminal device
type OpenError struct {
	Device string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ModeError reports a failed mode query, set or restore
type ModeError struct {
	Op  string // "get", "set", "restore"
	Err error
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("terminal mode %s: %v", e.Op, e.Err)
}

func (e *ModeError) Unwrap() error { return e.Err }

// CapabilityError reports a capability that could not be resolved.
// Surfaced only when the fallback set cannot serve it either
type CapabilityError struct {
	Term string
	Cap  string
	Err  error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s (%s): %v", e.Cap, e.Term, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// DecodeError describes malformed input bytes. The decoder recovers by
// emitting the bytes as literal characters; the error is only logged
type DecodeError struct {
	Bytes []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode % x: %v", e.Bytes, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errInvalidUTF8 is wrapped by DecodeError for bytes that start no valid sequence
var errInvalidUTF8 = errors.New("invalid utf-8")
