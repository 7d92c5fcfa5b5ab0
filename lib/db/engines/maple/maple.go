package maple

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/redkv/lib/db"
	"github.com/ValentinKolb/redkv/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/redkv/lib/db/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
	entryOverhead     = 24                     // slice header + deadline per entry, key excluded
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements db.KVDB with sharded data and lazy wall-clock expiry
type mapleImpl struct {
	seed   uint64            // Seed for hash function
	shards []*internal.Shard // Array of shards
	clock  func() time.Time

	// garbage collection
	gcInterval  time.Duration
	gcIsRunning atomic.Bool
	gcDone      sync.WaitGroup
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards  int              // Number of shards (0 = number of CPUs)
	GCInterval time.Duration    // Time between GC runs (0 = default: 100ms)
	Clock      func() time.Time // Time source (nil = time.Now)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards:  runtime.NumCPU(),
		GCInterval: defaultGCInterval,
		Clock:      time.Now,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
// and starts its garbage collector.
func NewMapleDB(opts *DBOptions) db.KVDB {
	defaults := DefaultOptions()
	if opts == nil {
		opts = defaults
	}
	if opts.NumShards <= 0 {
		opts.NumShards = defaults.NumShards
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaults.GCInterval
	}
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}

	shards := make([]*internal.Shard, opts.NumShards)
	for i := range shards {
		shards[i] = internal.NewShard()
	}

	newDB := &mapleImpl{
		seed:       util.GenerateSeed(),
		shards:     shards,
		clock:      opts.Clock,
		gcInterval: opts.GCInterval,
	}

	newDB.startGC()

	return newDB
}

// shardFor returns the shard responsible for key
func (maple *mapleImpl) shardFor(key string) *internal.Shard {
	return internal.GetShard(util.HashString(key, maple.seed), maple.shards)
}

// nowMs returns the current time of the database clock in unix milliseconds
func (maple *mapleImpl) nowMs() int64 {
	return maple.clock().UnixMilli()
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or overwrites an entry without expiry.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte) {
	maple.SetE(key, value, 0)
}

// SetE inserts or overwrites an entry that expires ttl from now.
// The deadline is computed once, at write time. A ttl <= 0 means no expiry.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetE(key string, value []byte, ttl time.Duration) {
	shard := maple.shardFor(key)

	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var expireAt int64
	if ttl > 0 {
		expireAt = maple.nowMs() + ttl.Milliseconds()
		if ttl%time.Millisecond != 0 {
			expireAt++ // round sub millisecond ttls up
		}
	}

	var event *internal.Event
	shard.Data.Compute(key, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		switch {
		case expireAt != 0:
			event = &internal.Event{Type: internal.EventTSchedule, Key: key, Deadline: expireAt}
		case loaded && old.ExpireAt != 0:
			// the overwrite drops the old deadline
			event = &internal.Event{Type: internal.EventTUnschedule, Key: key}
		default:
			event = nil
		}
		return internal.Entry{Value: valueCopy, ExpireAt: expireAt}, false
	})

	if event != nil {
		shard.Events.Push(*event)
	}
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a copy of the value for key.
// Expired entries are reported as absent but left in place for the collector,
// so reads never change the physical size of the database.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool) {
	entry, ok := maple.shardFor(key).Data.Load(key)
	if !ok || entry.Expired(maple.nowMs()) {
		return nil, false
	}

	data := make([]byte, len(entry.Value))
	copy(data, entry.Value)
	return data, true
}

// Has reports whether a live entry exists for key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Has(key string) bool {
	entry, ok := maple.shardFor(key).Data.Load(key)
	return ok && !entry.Expired(maple.nowMs())
}

// Len returns the number of stored entries, including expired entries that
// have not been collected yet.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Len() int {
	total := 0
	for _, shard := range maple.shards {
		total += shard.Data.Size()
	}
	return total
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts one collector goroutine per shard.
// If the GC is already running, this function does nothing.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) startGC() {
	if !maple.gcIsRunning.CompareAndSwap(false, true) {
		return
	}
	maple.gcDone.Add(len(maple.shards))
	for _, shard := range maple.shards {
		go maple.collect(shard)
	}
}

// stopGC stops all collectors and waits for them to exit.
// The GC can't be started again after it has been stopped.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) stopGC() {
	if maple.gcIsRunning.CompareAndSwap(true, false) {
		for _, shard := range maple.shards {
			shard.Events.Close()
		}
		maple.gcDone.Wait()
	}
}

// collect is the collector loop of one shard. It folds deadline events into
// the shard's heap and, every gcInterval, removes entries whose deadline passed.
//
// Thread-safety: Exactly one collect goroutine may run per shard.
func (maple *mapleImpl) collect(shard *internal.Shard) {
	defer maple.gcDone.Done()

	ticker := time.NewTicker(maple.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-shard.Events.Recv():
			if !ok {
				return
			}
			switch event.Type {
			case internal.EventTSchedule:
				shard.ExpireHeap.Schedule(event.Key, event.Deadline)
			case internal.EventTUnschedule:
				shard.ExpireHeap.Remove(event.Key)
			default:
				panic(fmt.Sprintf("unknown event %s", event))
			}

		case <-ticker.C:
			now := maple.nowMs()
			for _, item := range shard.ExpireHeap.PopDue(now) {
				shard.Data.Compute(item.Key, func(e internal.Entry, loaded bool) (internal.Entry, bool) {
					if !loaded {
						return e, true
					}
					/*
						The entry may have been overwritten since it was scheduled. Only remove it
						if its current deadline has passed. If the overwrite set a new deadline, the
						schedule event for it is still queued and will put the key back on the heap.
					*/
					return e, e.Expired(now)
				})
			}
		}
	}
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	now := maple.nowMs()

	histogram := util.NewSizeHistogram()
	shardSizes := make([]float64, len(maple.shards))

	var (
		wg      sync.WaitGroup
		keys    atomic.Int64
		expires atomic.Int64
		backlog atomic.Int64
	)
	wg.Add(len(maple.shards))

	for shardIndex, shard := range maple.shards {
		go func(i int, s *internal.Shard) {
			defer wg.Done()
			s.Data.Range(func(key string, entry internal.Entry) bool {
				if entry.Expired(now) {
					backlog.Add(1) // expired but not yet collected
					return true
				}
				histogram.AddSample(len(key) + len(entry.Value))
				keys.Add(1)
				if entry.ExpireAt != 0 {
					expires.Add(1)
				}
				return true
			})
			shardSizes[i] = float64(s.Data.Size())
		}(shardIndex, shard)
	}
	wg.Wait()

	// weighted estimate (60% median, 40% average)
	medianSize := histogram.MedianEstimate() + entryOverhead
	avgSize := histogram.AverageSize() + entryOverhead
	sizeBytes := int(keys.Load()) * ((medianSize*60 + avgSize*40) / 100)

	meta := &struct {
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
		ExpiredBacklog    int64                  `json:"expired_backlog"`
		Info              string                 `json:"info"`
	}{
		ShardCount:        len(maple.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		ExpiredBacklog:    backlog.Load(),
		Info:              "SizeBytes is an estimate based on the value size distribution.",
	}

	return db.DatabaseInfo{
		SizeBytes: sizeBytes,
		Keys:      int(keys.Load()),
		Expires:   int(expires.Load()),
		DbType:    db.ImplMaple,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureSetE,
			db.FeatureGet, db.FeatureHas,
			db.FeatureGarbageCollect,
		},
		Metadata: meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureSet |
		db.FeatureSetE |
		db.FeatureGet |
		db.FeatureHas |
		db.FeatureGarbageCollect
	return supportedFeatures&feature == feature
}

// Close stops the garbage collector
func (maple *mapleImpl) Close() error {
	maple.stopGC()
	return nil
}
