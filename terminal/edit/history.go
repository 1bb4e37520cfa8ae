package edit

// DefaultHistorySize is the entry limit of NewHistory(0)
const DefaultHistorySize = 500

// History is a bounded list of accepted lines with a navigation cursor.
// Navigating away from the line being edited keeps it as a draft that
// Next returns to
type History struct {
	entries []string
	max     int
	pos     int // len(entries) while not navigating
	draft   string
}

// NewHistory creates a history holding at most max entries
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// Add appends an accepted line. Empty lines and repeats of the newest
// entry are skipped. Resets navigation
func (h *History) Add(line string) {
	defer h.Reset()
	if line == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	limit := h.max
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	if len(h.entries) > limit {
		h.entries = h.entries[len(h.entries)-limit:]
	}
}

// Len returns the number of entries
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of all entries, oldest first
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Reset ends navigation
func (h *History) Reset() {
	h.pos = len(h.entries)
	h.draft = ""
}

// Prev moves to the previous entry. current is the text being edited,
// saved as the draft when navigation starts
func (h *History) Prev(current string) (string, bool) {
	if h.pos <= 0 {
		return "", false
	}
	if h.pos >= len(h.entries) {
		h.pos = len(h.entries)
		h.draft = current
	}
	h.pos--
	return h.entries[h.pos], true
}

// Next moves to the following entry, ending at the saved draft
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.entries) {
		return "", false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return h.draft, true
	}
	return h.entries[h.pos], true
}
