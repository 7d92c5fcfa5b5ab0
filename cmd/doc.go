// Package cmd implements the command-line interface of redkv. It provides a
// hierarchical command structure for running the server and talking to it
// as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts a leader, or a follower with --replicaof
//   - kv: Client commands (ping, echo, get, set, type, info, xadd, xrange, perf)
//   - util: Shared utilities for flags, environment and transports (internal use)
//
// Every flag can also be set as REDKV_<FLAG> in the environment or in a .env
// file. See redkv --help for a list of all commands.
package cmd
