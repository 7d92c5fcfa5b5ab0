// Package base implements the transport functionality that does not depend on
// the network medium. It is extended with protocol specific connectors (tcp, unix).
//
// Key Components:
//
//   - IClientConnector/IServerConnector: interfaces for the medium specific
//     operations (listen, dial, socket tuning).
//
//   - serverTransport: accept loop that tracks every open connection so Close
//     can tear all of them down, and runs one handler goroutine per connection.
//
//   - clientTransport: dials with retries.
//
//   - Retry: exponential backoff with a small random jitter (+-10%), starting at
//     50ms and capped at 5s. Also used by the follower handshake.
//
// Thread Safety:
//
//	All public methods are thread-safe.
package base
