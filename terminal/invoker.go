package terminal

import (
	"golang.org/x/text/encoding"
)

// Invoker performs capability invocations and text output against one
// device. Byte-stream terminals append sequences to an output buffer;
// legacy Windows consoles translate them into console calls.
// Invocations of unsupported capabilities are silent no-ops
type Invoker interface {
	Invoke(cp Cap, params ...int) error
	WriteText(s string) error
}

// seqInvoker appends expanded capability sequences to a byte buffer
type seqInvoker struct {
	caps    *Capabilities
	charset encoding.Encoding // nil for UTF-8
	out     []byte
}

func (s *seqInvoker) Invoke(cp Cap, params ...int) error {
	s.out = s.caps.AppendCap(s.out, cp, params...)
	return nil
}

func (s *seqInvoker) WriteText(text string) error {
	if s.charset == nil {
		s.out = append(s.out, text...)
		return nil
	}
	s.out = append(s.out, encodeText(s.charset, text)...)
	return nil
}

// reset drops pending output, keeping the buffer
func (s *seqInvoker) reset() {
	s.out = s.out[:0]
}
