// Package replication implements the leader/follower replication of redkv.
//
// Leader side:
//
//   - Info holds the role, the 40 character replication id and the offset,
//     and renders the INFO replication section.
//   - Follower is one attached follower connection with its own outbound
//     queue and writer goroutine. Writes to it are serialized by its own
//     mutex, so propagated batches and the resync payload never interleave.
//   - Registry keeps the followers, keyed by a ULID.
//   - Propagator buffers serialized write commands and hands them to the
//     queues of all synced followers without waiting for the writes. A
//     follower that falls behind or fails is stopped and reported back so
//     the caller can drop it after the pass.
//
// Follower side:
//
//   - Handshake runs PING, REPLCONF listening-port, REPLCONF capa psync2 and
//     PSYNC ? -1 against the leader and returns the open Link. Any failure
//     aborts the whole sequence, callers retry from the start.
//
// All errors of this package are *Error values carrying an ErrCode.
package replication
