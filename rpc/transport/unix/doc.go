// Package unix implements Unix domain socket transport for the redkv server
// and client, for clients running on the same host.
//
// The server removes a stale socket file before it binds.
package unix
