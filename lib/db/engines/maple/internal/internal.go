package internal

import (
	"fmt"

	"github.com/ValentinKolb/redkv/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Event Types are used to tell the garbage collector about deadline changes
// --------------------------------------------------------------------------

type EventType int

const (
	// EventTSchedule announces a (new) deadline for a key
	EventTSchedule EventType = iota
	// EventTUnschedule announces that a key no longer has a deadline
	EventTUnschedule
)

func (e EventType) String() string {
	switch e {
	case EventTSchedule:
		return "Schedule"
	case EventTUnschedule:
		return "Unschedule"
	default:
		return "Unknown"
	}
}

type Event struct {
	Type     EventType
	Key      string
	Deadline int64
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Type: %s, Key: %q, Deadline: %d}", e.Type, e.Key, e.Deadline)
}

// --------------------------------------------------------------------------
// Entry Type (value with expiry deadline)
// --------------------------------------------------------------------------

// Entry stores a value and its absolute expiry deadline in unix milliseconds.
// ExpireAt 0 means the entry never expires.
type Entry struct {
	Value    []byte
	ExpireAt int64
}

// Expired reports whether the deadline has been reached at nowMs
func (e Entry) Expired(nowMs int64) bool {
	return e.ExpireAt != 0 && nowMs >= e.ExpireAt
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard is one partition of the keyspace. ExpireHeap is owned by the shard's
// collector goroutine, every other goroutine talks to it through Events.
type Shard struct {
	Data       *xsync.MapOf[string, Entry]
	ExpireHeap *util.MapHeap[string]
	Events     *util.MPSC[Event]
}

// NewShard creates an empty shard
func NewShard() *Shard {
	return &Shard{
		Data:       xsync.NewMapOf[string, Entry](),
		ExpireHeap: util.NewMapHeap[string](),
		Events:     util.NewMPSC[Event](), // closed to stop the collector of this shard
	}
}

// GetShard returns the shard responsible for a key hash
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard(hash uint64, shards []*Shard) *Shard {
	return shards[util.ShardIndex(hash, len(shards))]
}
