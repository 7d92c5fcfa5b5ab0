// Package stream implements the append-only stream keyspace of redkv.
//
// A stream is an ordered log of entries keyed by an ID made of a millisecond
// timestamp and a sequence number. IDs within one stream are strictly
// increasing and 0-0 is never a valid ID.
//
// Key Components:
//
//   - ID: a (ms, seq) pair with a total order. Spec is the unresolved form a
//     client sends to XADD where either component may be a wildcard.
//
//   - Stream: the entries of one key, kept in a google/btree BTreeG ordered by ID.
//     Every stream has its own RWMutex so XRANGE readers do not block appends
//     to other streams.
//
//   - Store: the key to stream mapping. Streams are created on the first
//     successful append and live for the lifetime of the process.
//
// Error values returned by this package are of type *Error and carry the
// exact text that is sent to the client.
package stream
