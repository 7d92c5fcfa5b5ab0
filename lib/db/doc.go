// Package db provides the interface for the in-memory key-value engines
// backing the string keyspace of redkv.
//
// The package focuses on:
//   - A small KVDB interface for string keys with optional expiry
//   - Feature discovery through capability flags
//   - Standardized metadata reporting (used by INFO keyspace)
//
// Key Components:
//
//   - KVDB Interface: Set, SetE, Get, Has, Len, GetInfo, Close.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature.
//
//   - Database Information: DatabaseInfo reports size estimates, key and
//     expiry counts and implementation specific metadata.
//
// Note on Expiry:
//   - Deadlines are wall-clock instants computed when the entry is written
//     (now + ttl). Overwriting a key always recomputes its deadline.
//   - Lazy expiry: Get and Has must never observe an entry whose deadline
//     has passed, even if it is still physically present. These lookups must
//     not remove the entry either, so repeated reads leave Len unchanged.
//   - Implementations may reclaim expired entries in the background as long as
//     this is not observable through the read methods.
//
// Related Packages:
//
// The engines/maple package provides the sharded implementation used by the
// server. The testing package provides RunKVDBTests and RunKVDBBenchmarks to
// validate any implementation against this contract.
package db
