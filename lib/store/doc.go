// Package store defines the keyspace interface the redkv server executes commands against.
//
// The package focuses on:
//   - A single interface (IStore) covering string keys, streams and TYPE lookups
//   - Pluggable KV engines through the DBFactory pattern
//   - Structured errors (Error with a RetCode) for faults of the store itself
//
// Stream validation errors (stream.Error) are passed through unchanged since
// their text is sent to the client as is. A StoreError is an internal fault and
// the server answers it with a null reply.
//
// The local implementation lives in the lstore package.
package store
