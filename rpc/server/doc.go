// Package server implements the redkv server: the per connection command loop,
// command execution against the shared store and both sides of replication.
//
// The package focuses on:
//   - Serving RESP clients over any transport.IServerTransport, one goroutine
//     per connection, replies in request order
//   - A single reader/writer lock around the shared State: GET, TYPE, XRANGE
//     and INFO run concurrently, SET, XADD and follower registration are
//     exclusive
//   - Propagating applied writes to synced followers after every request
//   - Running as a follower: handshake with retries, applying the leader's
//     write stream and reconnecting when the link drops
//   - Exposing INFO stats and Prometheus metrics
//
// Key Components:
//
//   - Server: Created by NewServer. Serve runs the listener, the optional
//     metrics endpoint and, for a follower, the replication link.
//
//   - State: Role, replication id and offset, the store, the follower
//     registry and the propagation queue behind one sync.RWMutex.
//
//   - Metrics: go-metrics counters and an ops/sec meter for INFO, exported
//     together with per command counters and latency histograms through a
//     VictoriaMetrics set.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Port:          6379,
//	  BindHost:      "0.0.0.0",
//	  Transport:     common.TransportTCP,
//	  TimeoutSecond: 0,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  tcp.NewTCPClientTransport(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatal(err)
//	}
package server
