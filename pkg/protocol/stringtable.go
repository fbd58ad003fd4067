package protocol

import "fmt"

// UnknownStringIndexError is returned by StringTable.Resolve when a reference
// points past the end of the table. On the decode side this means the peer's
// table and ours have diverged, or the buffer is corrupt.
type UnknownStringIndexError struct {
	Index uint64
	Len   int
}

func (e *UnknownStringIndexError) Error() string {
	return fmt.Sprintf("protocol: unknown string index %d (table has %d entries)", e.Index, e.Len)
}

// StringTable is an append-only interning table. Index i always denotes the
// same string for the lifetime of the table; both ends of a channel build
// their tables in the same order so references resolve identically.
//
// A StringTable is not safe for concurrent use.
type StringTable struct {
	entries  []string
	index    map[string]int
	released bool
}

// NewStringTable creates an empty table.
func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Intern returns the index of s, appending it first if it has not been seen.
// seen reports whether s was already present.
func (t *StringTable) Intern(s string) (idx int, seen bool) {
	if i, ok := t.index[s]; ok {
		return i, true
	}
	idx = len(t.entries)
	t.entries = append(t.entries, s)
	t.index[s] = idx
	return idx, false
}

// Resolve returns the string stored at idx.
func (t *StringTable) Resolve(idx uint64) (string, error) {
	if idx >= uint64(len(t.entries)) {
		return "", &UnknownStringIndexError{Index: idx, Len: len(t.entries)}
	}
	return t.entries[idx], nil
}

// Len returns the number of interned strings.
func (t *StringTable) Len() int {
	return len(t.entries)
}

// rollback drops every entry appended at or after position n. Codec calls
// use it to undo the strings a failed message would have introduced.
func (t *StringTable) rollback(n int) {
	if n >= len(t.entries) {
		return
	}
	for _, s := range t.entries[n:] {
		delete(t.index, s)
	}
	clear(t.entries[n:])
	t.entries = t.entries[:n]
}

// Release drops all entries. It must be the last call made on the table.
func (t *StringTable) Release() {
	t.entries = nil
	t.index = nil
	t.released = true
}

// Released reports whether Release has been called.
func (t *StringTable) Released() bool {
	return t.released
}
