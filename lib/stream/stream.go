package stream

import (
	"sync"

	"github.com/google/btree"
)

const btreeDegree = 32

// Entry is one item of a stream. Fields holds field/value pairs flattened in
// the order the client sent them.
type Entry struct {
	ID     ID
	Fields []string
}

func entryLess(a, b Entry) bool {
	return a.ID.Less(b.ID)
}

// Stream is the ordered log stored under one key.
//
// Thread-safety: all methods are safe for concurrent use.
type Stream struct {
	mu      sync.RWMutex
	entries *btree.BTreeG[Entry]
	last    ID
}

func newStream() *Stream {
	return &Stream{entries: btree.NewG[Entry](btreeDegree, entryLess)}
}

// Append resolves spec against the current top item, validates it and
// stores the entry. The fields slice is copied.
func (s *Stream) Append(spec Spec, fields []string, nowMs uint64) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := spec.resolve(s.last, s.entries.Len() > 0, nowMs)
	if err != nil {
		return ID{}, err
	}

	s.entries.ReplaceOrInsert(Entry{ID: id, Fields: append([]string(nil), fields...)})
	s.last = id
	return id, nil
}

// Range returns the entries with start <= id <= end in ascending order.
// A count > 0 limits the number of returned entries.
func (s *Stream) Range(start, end ID, count int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0)
	if end.Less(start) {
		return result
	}
	s.entries.AscendGreaterOrEqual(Entry{ID: start}, func(e Entry) bool {
		if end.Less(e.ID) {
			return false
		}
		result = append(result, e)
		return count <= 0 || len(result) < count
	})
	return result
}

// Len returns the number of entries.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// LastID returns the top item's id and false if the stream is empty.
func (s *Stream) LastID() (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.entries.Len() > 0
}
