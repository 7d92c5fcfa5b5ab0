// Package util provides the building blocks of the maple engine.
//
// The package contains:
//   - functions: seed generation, seeded FNV-1a string hashing and shard selection
//   - mapheap: a min-heap of deadlines that also supports removal by key
//   - mpsc: a lock-free multi-producer single-consumer queue feeding the per-shard collectors
//   - statistics: a size histogram and distribution statistics for GetInfo
package util
