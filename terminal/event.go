// @focus: #sys { io } #input { events }
package terminal

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey    EventType = iota
	EventResize           // terminal size changed
	EventSignal           // reported process signal
	EventMouse            // SGR mouse report or console mouse record
	EventPaste            // bracketed paste
	EventRaw              // complete but unrecognized escape sequence
)

func (t EventType) String() string {
	switch t {
	case EventKey:
		return "Key"
	case EventResize:
		return "Resize"
	case EventSignal:
		return "Signal"
	case EventMouse:
		return "Mouse"
	case EventPaste:
		return "Paste"
	case EventRaw:
		return "Raw"
	}
	return "Unknown"
}

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier

	// EventResize
	Width  int
	Height int

	// EventSignal
	Signal Signal

	// EventMouse, 0-indexed cell position
	MouseX      int
	MouseY      int
	MouseBtn    MouseButton
	MouseAction MouseAction

	Text string // EventPaste
	Raw  []byte // EventRaw

	// Size is the number of input bytes the event consumed. Events not
	// decoded from the byte stream, and additional characters produced by
	// normalizing one input segment, have Size 0
	Size int
}

// IsRune reports whether the event is a printable character
func (e Event) IsRune() bool {
	return e.Type == EventKey && e.Key == KeyRune
}
