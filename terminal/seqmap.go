package terminal

import (
	"slices"
	"strings"
)

// FindResult classifies a sequence lookup
type FindResult uint8

const (
	// NotFound: no sequence begins with the input
	NotFound FindResult = iota
	// Incomplete: the input is a proper prefix of one or more sequences
	Incomplete
	// Undecided: the input is a sequence and also a prefix of longer ones
	Undecided
	// Found: the input is a sequence and nothing longer extends it
	Found
)

func (r FindResult) String() string {
	switch r {
	case Incomplete:
		return "Incomplete"
	case Undecided:
		return "Undecided"
	case Found:
		return "Found"
	}
	return "NotFound"
}

type seqEntry[V any] struct {
	key string
	val V
}

// SequenceMap holds byte sequences sorted by key, supporting prefix queries
type SequenceMap[V any] struct {
	entries []seqEntry[V]
}

// NewSequenceMap returns an empty map with room for n entries
func NewSequenceMap[V any](n int) *SequenceMap[V] {
	return &SequenceMap[V]{entries: make([]seqEntry[V], 0, n)}
}

func (m *SequenceMap[V]) search(key string) (int, bool) {
	return slices.BinarySearchFunc(m.entries, key, func(e seqEntry[V], k string) int {
		return strings.Compare(e.key, k)
	})
}

// Insert adds or replaces the value for key. Returns true if key was new
func (m *SequenceMap[V]) Insert(key string, val V) bool {
	n, found := m.search(key)
	if found {
		m.entries[n].val = val
		return false
	}
	m.entries = slices.Insert(m.entries, n, seqEntry[V]{key: key, val: val})
	return true
}

// Get returns the value stored for an exact key
func (m *SequenceMap[V]) Get(key string) (V, bool) {
	n, found := m.search(key)
	if !found {
		var zero V
		return zero, false
	}
	return m.entries[n].val, true
}

// Remove deletes key, reporting whether it was present
func (m *SequenceMap[V]) Remove(key string) bool {
	n, found := m.search(key)
	if found {
		m.entries = slices.Delete(m.entries, n, n+1)
	}
	return found
}

// Len returns the number of sequences
func (m *SequenceMap[V]) Len() int {
	return len(m.entries)
}

// Find performs a search for a partial or complete sequence match.
// The value is meaningful for Undecided and Found
func (m *SequenceMap[V]) Find(key string) (V, FindResult) {
	n, found := m.search(key)

	next := n
	if found {
		next++
	}
	incomplete := next < len(m.entries) && strings.HasPrefix(m.entries[next].key, key)

	var zero V
	switch {
	case found && incomplete:
		return m.entries[n].val, Undecided
	case found:
		return m.entries[n].val, Found
	case incomplete:
		return zero, Incomplete
	}
	return zero, NotFound
}

// Longest returns the value of the longest sequence that is a prefix of
// input and its length. more reports that input is itself a proper prefix
// of a longer sequence, so further bytes could change the match
func (m *SequenceMap[V]) Longest(input []byte) (val V, n int, more bool) {
	for i := 1; i <= len(input); i++ {
		v, res := m.Find(string(input[:i]))
		switch res {
		case NotFound:
			return val, n, false
		case Found:
			return v, i, false
		case Undecided:
			val, n = v, i
		}
	}
	return val, n, true
}
