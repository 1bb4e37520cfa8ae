package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceMap_Find(t *testing.T) {
	m := NewSequenceMap[int](4)
	assert.True(t, m.Insert("\x1b[A", 1))
	assert.True(t, m.Insert("\x1b[1~", 2))
	assert.True(t, m.Insert("\x1b[1;5A", 3))
	assert.True(t, m.Insert("\x1b", 4))
	assert.False(t, m.Insert("\x1b", 5), "replacing reports false")
	assert.Equal(t, 4, m.Len())

	tests := []struct {
		key string
		res FindResult
		val int
	}{
		{"x", NotFound, 0},
		{"\x1b", Undecided, 5},
		{"\x1b[", Incomplete, 0},
		{"\x1b[1", Incomplete, 0},
		{"\x1b[A", Found, 1},
		{"\x1b[1~", Found, 2},
		{"\x1b[1;5A", Found, 3},
		{"\x1b[1;5AB", NotFound, 0},
	}
	for _, tt := range tests {
		v, res := m.Find(tt.key)
		assert.Equal(t, tt.res, res, "Find(%q)", tt.key)
		assert.Equal(t, tt.val, v, "Find(%q)", tt.key)
	}
}

func TestSequenceMap_GetRemove(t *testing.T) {
	m := NewSequenceMap[string](0)
	m.Insert("b", "B")
	m.Insert("a", "A")

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	_, ok = m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestSequenceMap_Longest(t *testing.T) {
	m := NewSequenceMap[int](3)
	m.Insert("ab", 1)
	m.Insert("abcd", 2)

	v, n, more := m.Longest([]byte("abx"))
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, n)
	assert.False(t, more)

	_, n, more = m.Longest([]byte("abc"))
	assert.Equal(t, 2, n, "shorter match is remembered")
	assert.True(t, more)

	v, n, more = m.Longest([]byte("abcdz"))
	assert.Equal(t, 2, v)
	assert.Equal(t, 4, n)
	assert.False(t, more)

	_, n, more = m.Longest([]byte("z"))
	assert.Zero(t, n)
	assert.False(t, more)
}

func TestFindResult_String(t *testing.T) {
	assert.Equal(t, "Undecided", Undecided.String())
	assert.Equal(t, "NotFound", NotFound.String())
}
