// Package transport defines the connection level abstractions used by the
// redkv server and client. Requests and replies are RESP encoded by the
// layers above, the transport only moves connections around.
//
// Key Components:
//
//   - IServerTransport: accepts connections and runs a ConnHandler for each.
//
//   - IClientTransport: dials a server with retries.
//
// Implementations live in the sub packages: base holds the medium independent
// accept loop and retry logic, tcp and unix provide the connectors, and http
// serves the metrics and health endpoints.
package transport
