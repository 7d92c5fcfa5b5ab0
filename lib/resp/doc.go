// Package resp implements the binary-safe wire codec spoken by redkv clients,
// followers and the leader.
//
// The package focuses on:
//   - A tagged value tree (Value) covering simple strings, simple errors,
//     bulk strings, bulk errors and arrays
//   - Parsing complete logical units from a buffered stream (Reader)
//   - Serializing values and raw snapshot payloads (Writer, Value.AppendTo)
//
// Key Components:
//
//   - Value: an immutable node of the value tree. Arrays nest arbitrarily.
//     A bulk string with length -1 is the null bulk string and is distinct
//     from the empty bulk string.
//
//   - Reader: reads one Value at a time. Any malformed input fails with an
//     error wrapping ErrProtocol. Callers are expected to drop the connection
//     on such errors since framing can not be recovered.
//
//   - Writer: buffered serializer. Nothing reaches the underlying connection
//     until Flush is called.
//
// Command tokens are not case folded by the codec. Name matching is the job
// of the command package, payload bytes are passed through untouched.
package resp
