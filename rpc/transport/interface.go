package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/redkv/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ConnHandler serves one accepted connection until the peer goes away or
// ctx is cancelled. The transport closes conn after the handler returns.
type ConnHandler func(ctx context.Context, conn net.Conn)

// IServerTransport accepts connections and hands each one to the registered
// handler in its own goroutine.
type IServerTransport interface {
	// RegisterHandler registers the handler for accepted connections.
	// It must be called before Listen.
	RegisterHandler(handler ConnHandler)
	// Listen binds the listener and serves connections. It blocks until ctx
	// is cancelled or Close is called and all handlers have returned.
	Listen(ctx context.Context, config common.ServerConfig) error
	// Ready is closed once the listener is bound.
	Ready() <-chan struct{}
	// Addr returns the bound address, nil before Ready is closed.
	Addr() net.Addr
	// Close stops accepting and closes all open connections.
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport opens connections to a server.
type IClientTransport interface {
	// Dial connects to config.Endpoint, retrying up to config.RetryCount
	// times with exponential backoff.
	Dial(ctx context.Context, config common.ClientConfig) (net.Conn, error)
}
