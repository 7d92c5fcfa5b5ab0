package base

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

const acceptErrorDelay = 5 * time.Millisecond

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ConnHandler

	mu       sync.Mutex // protects listener and cancel
	listener net.Listener
	cancel   context.CancelFunc
	ready    chan struct{}
	closed   atomic.Bool

	conns  *xsync.MapOf[uint64, net.Conn]
	nextID atomic.Uint64
	wg     sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport using the connector
func NewBaseServerTransport(connector IServerConnector) transport.IServerTransport {
	return &serverTransport{
		connector: connector,
		ready:     make(chan struct{}),
		conns:     xsync.NewMapOf[uint64, net.Conn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ConnHandler) {
	t.handler = handler
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if t.handler == nil {
		return errors.New("no connection handler registered")
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.closed.Load() {
		t.mu.Unlock()
		return listener.Close()
	}
	t.listener = listener
	t.cancel = cancel
	t.mu.Unlock()
	close(t.ready)

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() {
				break
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(acceptErrorDelay)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		id := t.nextID.Add(1)
		t.conns.Store(id, conn)
		if t.closed.Load() {
			// Close may have walked the map before the store
			_ = conn.Close()
		}

		// Handle the connection in a goroutine
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			defer t.conns.Delete(id)
			defer conn.Close()
			t.handler(ctx, conn)
		}()
	}

	// Wait for all handlers to finish
	t.wg.Wait()
	Logger.Infof("Stopped %s server on %s", t.connector.GetName(), listener.Addr())
	return nil
}

func (t *serverTransport) Ready() <-chan struct{} {
	return t.ready
}

func (t *serverTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	listener, cancel := t.listener, t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if listener != nil {
		err = listener.Close()
	}

	t.conns.Range(func(_ uint64, conn net.Conn) bool {
		_ = conn.Close()
		return true
	})
	return err
}
