package stream

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store maps keys to streams.
//
// Thread-safety: all methods are safe for concurrent use.
type Store struct {
	streams *xsync.MapOf[string, *Stream]
	clock   func() time.Time
}

// NewStore creates an empty store. clock is used for wildcard ids, nil means time.Now.
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		streams: xsync.NewMapOf[string, *Stream](),
		clock:   clock,
	}
}

func (st *Store) nowMs() uint64 {
	ms := st.clock().UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// Append adds an entry to the stream under key and returns the assigned id.
// The stream is created if this is its first successful append, a failed
// append to a missing key leaves the key absent.
func (st *Store) Append(key string, spec Spec, fields []string) (ID, error) {
	now := st.nowMs()

	var (
		id  ID
		err error
	)
	st.streams.Compute(key, func(old *Stream, loaded bool) (*Stream, bool) {
		if !loaded {
			old = newStream()
		}
		id, err = old.Append(spec, fields, now)
		if err != nil && !loaded {
			return nil, true
		}
		return old, false
	})
	return id, err
}

// Range returns the entries of key between start and end (both inclusive).
// The boolean is false if the key holds no stream.
func (st *Store) Range(key string, start, end ID, count int) ([]Entry, bool) {
	s, ok := st.streams.Load(key)
	if !ok {
		return nil, false
	}
	return s.Range(start, end, count), true
}

// Get returns the stream stored under key.
func (st *Store) Get(key string) (*Stream, bool) {
	return st.streams.Load(key)
}

// Exists reports whether key holds a stream.
func (st *Store) Exists(key string) bool {
	_, ok := st.streams.Load(key)
	return ok
}

// Len returns the number of streams.
func (st *Store) Len() int {
	return st.streams.Size()
}
