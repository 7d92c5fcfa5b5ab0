// Package common provides the configuration structures and the logging setup
// shared by the redkv server, the replication engine and the client.
//
// Key Components:
//
//   - ServerConfig: listener, replication, storage and observability settings
//     of a server, with validation and a pretty printer for startup logs.
//
//   - ClientConfig: endpoint, transport, timeout and retry settings of a client.
//
//   - Logger: implementation of dragonboat's logger.ILogger with a consistent
//     "LEVEL | name | message" format. InitLoggers installs it as the factory
//     for every named logger of the application.
package common
