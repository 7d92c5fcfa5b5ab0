package replication

import (
	"crypto/rand"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// FollowerQueueSize is the number of propagated batches a follower may have
// outstanding before it is dropped.
const FollowerQueueSize = 1024

var (
	errQueueFull = errors.New("outbound queue full")
	errClosed    = errors.New("follower closed")
)

// Follower is a follower connection attached to the leader.
//
// Propagated batches go through a per follower queue drained by its own
// goroutine, started by Sync. A follower that cannot keep up or whose write
// fails is stopped and its writer closed.
//
// Thread-safety: all methods are safe for concurrent use. Writes are
// serialized by a per follower mutex.
type Follower struct {
	ID            ulid.ULID
	ListeningPort int
	RemoteAddr    string

	mu           sync.Mutex // serializes writes to w
	w            io.Writer
	writeTimeout time.Duration
	synced       atomic.Bool

	out       chan []byte
	start     sync.Once
	stop      sync.Once
	done      chan struct{}
	err       atomic.Pointer[error]
	closeOnce sync.Once
}

// NewFollower creates a follower that writes to w. If w is a net.Conn every
// write is bounded by writeTimeout (0 = no timeout).
func NewFollower(w io.Writer, listeningPort int, writeTimeout time.Duration) *Follower {
	f := &Follower{
		ID:            ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)),
		ListeningPort: listeningPort,
		w:             w,
		writeTimeout:  writeTimeout,
		out:           make(chan []byte, FollowerQueueSize),
		done:          make(chan struct{}),
	}
	if conn, ok := w.(net.Conn); ok && conn.RemoteAddr() != nil {
		f.RemoteAddr = conn.RemoteAddr().String()
	}
	return f
}

// Key returns the registry key of the follower.
func (f *Follower) Key() string {
	return f.ID.String()
}

// Synced reports whether the follower received its resync payload and takes
// part in propagation.
func (f *Follower) Synced() bool {
	return f.synced.Load()
}

// Sync writes the resync payload, marks the follower synced and starts its
// writer. payload is called with the follower's write lock held, so batches
// queued by a flush that already sees the follower as synced are written
// after the payload.
func (f *Follower) Sync(payload func() []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.synced.Store(true)
	if err := f.write(payload()); err != nil {
		f.synced.Store(false)
		return err
	}
	f.startWriter()
	return nil
}

func (f *Follower) startWriter() {
	f.start.Do(func() { go f.run() })
}

// Offer queues a batch without blocking. It returns false if the follower is
// stopped or its queue is full; a full queue stops the follower.
func (f *Follower) Offer(b []byte) bool {
	select {
	case <-f.done:
		return false
	default:
	}
	select {
	case f.out <- b:
		return true
	default:
		f.fail(errQueueFull)
		return false
	}
}

// Done is closed once the follower stopped, after a failure or Close.
func (f *Follower) Done() <-chan struct{} {
	return f.done
}

// Err returns the error that stopped the follower, if any.
func (f *Follower) Err() error {
	if p := f.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (f *Follower) run() {
	for {
		select {
		case <-f.done:
			return
		case b := <-f.out:
			if err := f.Write(b); err != nil {
				f.fail(err)
				return
			}
		}
	}
}

// fail stops the follower and closes its writer. The session owning the
// connection notices the closed socket and deregisters it.
func (f *Follower) fail(err error) {
	f.err.CompareAndSwap(nil, &err)
	f.stop.Do(func() {
		Logger.Warningf("Propagation to follower %s (%s) failed: %v", f.ID, f.RemoteAddr, err)
		close(f.done)
	})
	f.closeWriter()
}

// Write writes b in full.
func (f *Follower) Write(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(b)
}

func (f *Follower) write(b []byte) error {
	conn, isConn := f.w.(net.Conn)
	if isConn && f.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(f.writeTimeout)); err != nil {
			return err
		}
		defer conn.SetWriteDeadline(time.Time{})
	}
	_, err := f.w.Write(b)
	return err
}

// Close stops the writer goroutine and closes the underlying writer if it is
// closable.
func (f *Follower) Close() error {
	f.err.CompareAndSwap(nil, &errClosed)
	f.stop.Do(func() { close(f.done) })
	return f.closeWriter()
}

func (f *Follower) closeWriter() error {
	var err error
	f.closeOnce.Do(func() {
		if c, ok := f.w.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
