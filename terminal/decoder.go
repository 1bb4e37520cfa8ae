// @focus: #sys { io } #input { decode }
package terminal

import (
	"bytes"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/unicode/norm"
)

// DefaultEscapeDelay is the grace period after a partial sequence before
// the pending bytes are taken as literal input
const DefaultEscapeDelay = 50 * time.Millisecond

// DefaultPasteTimeout is the silence after which an unterminated bracketed
// paste is delivered as received
const DefaultPasteTimeout = time.Second

const (
	pasteStart = "\x1b[200~"
	pasteEnd   = "\x1b[201~"

	maxPasteSize = 1 << 20
)

// inputSequences holds every recognized escape sequence, keyed by the full
// byte sequence including the introducer
var inputSequences = buildInputSequences()

func buildInputSequences() *SequenceMap[escapeSequence] {
	m := NewSequenceMap[escapeSequence](len(csiSequences) + len(ss3Sequences) + 8*len(csiSequences))
	for _, s := range csiSequences {
		m.Insert("\x1b["+s.seq, s)
	}
	for _, s := range ss3Sequences {
		m.Insert("\x1bO"+s.seq, s)
	}

	// xterm modified forms: ESC [ 1 ; mod X and ESC [ N ; mod ~
	for mod := 2; mod <= 8; mod++ {
		ms := string(rune('0' + mod))
		for _, s := range csiModifiable {
			m.Insert("\x1b[1;"+ms+s.seq, escapeSequence{seq: "1;" + ms + s.seq, key: s.key, mod: xtermModifier(mod)})
		}
		for _, s := range csiSequences {
			if len(s.seq) < 2 || s.seq[len(s.seq)-1] != '~' || s.seq[0] == '[' {
				continue
			}
			num := s.seq[:len(s.seq)-1]
			seq := num + ";" + ms + "~"
			m.Insert("\x1b["+seq, escapeSequence{seq: seq, key: s.key, mod: xtermModifier(mod)})
		}
	}
	return m
}

// Decoder turns raw input bytes into events. It is not safe for concurrent
// use; the terminal serializes access under its read lock.
//
// Bytes that may begin a longer sequence stay buffered until more input
// arrives or Flush is called after the grace period
type Decoder struct {
	seqs    *SequenceMap[escapeSequence]
	buf     []byte
	queue   []Event
	expired bool
	table   *byteTable // nil for UTF-8
	log     *zap.Logger
}

// NewDecoder creates a UTF-8 decoder
func NewDecoder(log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{
		seqs: inputSequences,
		buf:  make([]byte, 0, 256),
		log:  log,
	}
}

// SetCharset switches input decoding to a single-byte charset; nil
// restores UTF-8
func (d *Decoder) SetCharset(enc encoding.Encoding) {
	if enc == nil {
		d.table = nil
		return
	}
	d.table = newByteTable(enc)
}

// Feed appends input bytes. New input cancels a pending Flush
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
	d.expired = false
}

// Flush marks the grace period as expired: the next calls to Next treat
// buffered partial sequences as literal input
func (d *Decoder) Flush() {
	d.expired = true
}

// Pending reports whether undecoded bytes are buffered
func (d *Decoder) Pending() bool {
	return len(d.buf) > 0
}

// InPaste reports whether an unterminated bracketed paste is buffered
func (d *Decoder) InPaste() bool {
	return bytes.HasPrefix(d.buf, []byte(pasteStart))
}

// Buffered reports whether decoded events are ready without further input
func (d *Decoder) Buffered() bool {
	return len(d.queue) > 0
}

// Reset discards all buffered input
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.queue = d.queue[:0]
	d.expired = false
}

// Next returns the next decoded event, or false when more input is needed
func (d *Decoder) Next() (Event, bool) {
	if len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue = d.queue[1:]
		return ev, true
	}
	if len(d.buf) == 0 {
		return Event{}, false
	}

	ev, n := d.decode(d.buf)
	if n == 0 {
		return Event{}, false
	}
	ev.Size = n

	// Compact buffer
	if n >= len(d.buf) {
		d.buf = d.buf[:0]
	} else {
		copy(d.buf, d.buf[n:])
		d.buf = d.buf[:len(d.buf)-n]
	}
	return ev, true
}

// decode returns the first event in data and the bytes it consumed;
// n == 0 means data is an incomplete prefix
func (d *Decoder) decode(data []byte) (Event, int) {
	b := data[0]
	switch {
	case b == 0x1b:
		return d.decodeEscape(data)
	case b < 0x20 || b == 0x7f:
		return controlEvent(b), 1
	}
	return d.decodeText(data)
}

func (d *Decoder) decodeEscape(data []byte) (Event, int) {
	if len(data) == 1 {
		if d.expired {
			return Event{Type: EventKey, Key: KeyEscape}, 1
		}
		return Event{}, 0
	}

	if bytes.HasPrefix(data, []byte(pasteStart)) {
		return d.decodePaste(data)
	}
	if len(data) >= 3 && data[1] == '[' && data[2] == '<' {
		return d.decodeMouse(data)
	}

	s, n, more := d.seqs.Longest(data)
	if more || bytes.HasPrefix([]byte(pasteStart), data) {
		if !d.expired {
			return Event{}, 0
		}
		return d.expiredEscape(data)
	}
	if n > 0 {
		ev := Event{Type: EventKey, Key: s.key, Modifiers: s.mod, Rune: s.r}
		return ev, n
	}

	switch data[1] {
	case '[':
		return d.decodeUnknownCSI(data)
	case 'O':
		// Unknown SS3 - consume to prevent garbage
		return Event{Type: EventRaw, Raw: bytes.Clone(data[:3])}, 3
	case 0x1b:
		return Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}, 2
	}

	// Alt+control
	if data[1] < 0x20 || data[1] == 0x7f {
		ev := controlEvent(data[1])
		ev.Modifiers |= ModAlt
		return ev, 2
	}

	// Alt+character
	ev, n := d.decodeText(data[1:])
	if n == 0 {
		if !d.expired {
			return Event{}, 0
		}
		return Event{Type: EventKey, Key: KeyEscape}, 1
	}
	ev.Modifiers |= ModAlt
	return ev, n + 1
}

// expiredEscape resolves a partial sequence after the grace period: ESC
// plus one byte reads as Alt+byte, anything longer as a lone ESC followed
// by literal characters
func (d *Decoder) expiredEscape(data []byte) (Event, int) {
	if len(data) == 2 && data[1] >= 0x20 && data[1] < 0x7f {
		return Event{Type: EventKey, Key: KeyRune, Rune: rune(data[1]), Modifiers: ModAlt}, 2
	}
	return Event{Type: EventKey, Key: KeyEscape}, 1
}

// decodeUnknownCSI consumes a syntactically complete CSI sequence
// (parameters 0x30-0x3f, intermediates 0x20-0x2f, final 0x40-0x7e)
func (d *Decoder) decodeUnknownCSI(data []byte) (Event, int) {
	i := 2
	for i < len(data) && data[i] >= 0x30 && data[i] <= 0x3f {
		i++
	}
	for i < len(data) && data[i] >= 0x20 && data[i] <= 0x2f {
		i++
	}
	if i >= len(data) {
		if !d.expired {
			return Event{}, 0
		}
		return Event{Type: EventKey, Key: KeyEscape}, 1
	}
	if data[i] >= 0x40 && data[i] <= 0x7e {
		return Event{Type: EventRaw, Raw: bytes.Clone(data[:i+1])}, i + 1
	}
	// Malformed: drop the introducer and parameters, keep the offending byte
	return Event{Type: EventRaw, Raw: bytes.Clone(data[:i])}, i
}

func (d *Decoder) decodeMouse(data []byte) (Event, int) {
	ev, n, res := parseSGRMouse(data)
	switch res {
	case sgrComplete:
		return ev, n
	case sgrMalformed:
		return Event{Type: EventRaw, Raw: bytes.Clone(data[:n])}, n
	}
	if !d.expired {
		return Event{}, 0
	}
	return Event{Type: EventRaw, Raw: bytes.Clone(data)}, len(data)
}

// decodePaste waits for the closing bracket until Flush or until the body
// reaches maxPasteSize, then delivers what has arrived
func (d *Decoder) decodePaste(data []byte) (Event, int) {
	body := data[len(pasteStart):]
	end := bytes.Index(body, []byte(pasteEnd))
	if end < 0 {
		if !d.expired && len(body) < maxPasteSize {
			return Event{}, 0
		}
		d.log.Debug("unterminated paste", zap.Int("bytes", len(body)), zap.Bool("expired", d.expired))
		return Event{Type: EventPaste, Text: d.pasteText(body)}, len(data)
	}
	return Event{Type: EventPaste, Text: d.pasteText(body[:end])}, len(pasteStart) + end + len(pasteEnd)
}

func (d *Decoder) pasteText(text []byte) string {
	var s string
	if d.table != nil {
		rs := make([]rune, 0, len(text))
		for _, c := range text {
			rs = append(rs, d.byteRune(c))
		}
		s = string(rs)
	} else {
		s = norm.NFC.String(string(bytes.ToValidUTF8(text, []byte("�"))))
	}
	return s
}

func (d *Decoder) byteRune(c byte) rune {
	if c < 0x80 || d.table == nil {
		return rune(c)
	}
	return d.table[c-0x80]
}

// decodeText decodes one normalization segment of printable characters.
// The first event carries the segment's byte count, extra characters
// produced by normalization are queued with Size 0
func (d *Decoder) decodeText(data []byte) (Event, int) {
	if d.table != nil {
		return Event{Type: EventKey, Key: KeyRune, Rune: d.byteRune(data[0])}, 1
	}

	// Fast path: printable ASCII not followed by a possible combining mark
	if data[0] < 0x80 && (len(data) == 1 || data[1] < 0x80) {
		return Event{Type: EventKey, Key: KeyRune, Rune: rune(data[0])}, 1
	}

	// Longest run of complete, valid, printable UTF-8
	i := 0
	for i < len(data) {
		c := data[i]
		if c < 0x20 || c == 0x7f {
			break
		}
		if c < 0x80 {
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		i += size
	}

	if i == 0 {
		if !utf8.FullRune(data) && !d.expired {
			return Event{}, 0
		}
		// Not a valid sequence: take the byte as a Latin-1 character
		d.log.Debug("invalid input byte",
			zap.Error(&DecodeError{Bytes: bytes.Clone(data[:1]), Err: errInvalidUTF8}))
		return Event{Type: EventKey, Key: KeyRune, Rune: rune(data[0])}, 1
	}

	text := data[:i]
	seg := norm.NFC.NextBoundary(text, true)
	if seg <= 0 {
		_, seg = utf8.DecodeRune(text)
	}
	out := norm.NFC.Bytes(text[:seg])

	first, size := utf8.DecodeRune(out)
	for rest := out[size:]; len(rest) > 0; {
		r, n := utf8.DecodeRune(rest)
		d.queue = append(d.queue, Event{Type: EventKey, Key: KeyRune, Rune: r})
		rest = rest[n:]
	}
	return Event{Type: EventKey, Key: KeyRune, Rune: first}, seg
}
