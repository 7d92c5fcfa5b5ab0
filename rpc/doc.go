// Package rpc contains the network side of redkv: everything between a socket
// and the store.
//
// The package is organized into several subpackages:
//
//   - common: Server and client configuration, the --replicaof address and
//     the logger setup shared by all packages.
//
//   - transport: Connection oriented transports with pluggable implementations
//     (TCP, Unix sockets) plus the HTTP metrics endpoint.
//
//   - client: A RESP client with typed helpers for every supported command.
//
//   - replication: Follower registry, write propagation and the follower
//     side handshake with a leader.
//
//   - server: The per connection command loop, command execution and the
//     follower role.
package rpc
