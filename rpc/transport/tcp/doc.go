// Package tcp implements TCP socket based transport for the redkv server and
// client. It provides the tcp connectors for the base package.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both sides disable Nagle's algorithm and enable keep-alive on every connection.
package tcp
