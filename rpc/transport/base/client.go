package base

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to endpoint
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
}

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IClientTransport {
	return &clientTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Dial(ctx context.Context, config common.ClientConfig) (net.Conn, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint provided")
	}

	attempts := config.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var conn net.Conn
	err := Retry(ctx, attempts, InitialBackoff, func(attempt int) error {
		dialCtx := ctx
		if config.TimeoutSecond > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, time.Duration(config.TimeoutSecond)*time.Second)
			defer cancel()
		}

		c, err := t.connector.Connect(dialCtx, config.Endpoint)
		if err != nil {
			Logger.Debugf("Connect attempt %d/%d to %s failed: %v", attempt+1, attempts, config.Endpoint, err)
			return err
		}

		if err := t.connector.UpgradeConnection(c, config); err != nil {
			_ = c.Close()
			return fmt.Errorf("failed to upgrade connection to %s: %w", config.Endpoint, err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", config.Endpoint, attempts, err)
	}

	Logger.Debugf("Connected to %s using %s transport", config.Endpoint, t.connector.GetName())
	return conn, nil
}
