// Package maple implements the sharded in-memory key-value engine behind the
// string keyspace of redkv. It provides a complete implementation of the
// db.KVDB interface.
//
// The package focuses on:
//   - Concurrent access through sharding and xsync maps
//   - Lazy wall-clock expiry: expired entries are invisible to reads at once
//     and reclaimed later by a background collector
//   - Statistics for INFO keyspace via GetInfo
//
// Key Components:
//
//   - mapleImpl: implements db.KVDB. It owns the shards, the hash seed, the
//     clock and the collector goroutines.
//
//   - Shard: a partition of the keyspace with its own xsync.MapOf, a deadline
//     heap (util.MapHeap) and an event queue (util.MPSC).
//
//   - Entry: a value plus its absolute deadline in unix milliseconds.
//
// Garbage Collection:
//
//   - Writes with a ttl push a schedule event onto the shard's queue, an
//     overwrite that drops a ttl pushes an unschedule event.
//   - One collector goroutine per shard folds the events into its heap, so
//     the heap is never touched concurrently and needs no lock.
//   - Every GC interval the collector pops all due keys and removes each entry
//     whose current deadline has passed. An entry overwritten in the meantime
//     is kept, its new deadline arrives through the event queue.
//
// Since the collector runs behind real time, Get and Has compare the
// deadline against the clock themselves. Reads never delete, which keeps
// lookups lock-free and Len stable under repeated reads of expired keys.
package maple
