package client

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/transport"
)

// Client is a RESP connection to a redkv (or redis) server. It sends one
// command at a time and waits for its reply.
//
// Thread-safety: Do and the typed command methods are safe for concurrent
// use, calls are serialized on the connection. Send, ReadValue and
// ReadSnapshot are low level and must not be mixed with concurrent Do calls.
type Client struct {
	conn    net.Conn
	reader  *resp.Reader
	writer  *resp.Writer
	timeout time.Duration
	mu      sync.Mutex
}

// NewClient wraps an established connection. A timeout > 0 bounds every
// request/reply round trip.
func NewClient(conn net.Conn, timeout time.Duration) *Client {
	return &Client{
		conn:    conn,
		reader:  resp.NewReader(conn),
		writer:  resp.NewWriter(conn),
		timeout: timeout,
	}
}

// Dial connects using the transport and wraps the connection.
func Dial(ctx context.Context, t transport.IClientTransport, config common.ClientConfig) (*Client, error) {
	conn, err := t.Dial(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, time.Duration(config.TimeoutSecond)*time.Second), nil
}

// Do sends a command and returns the reply. Error replies are returned as
// values, not as errors. The returned error is a transport or protocol error.
func (c *Client) Do(args ...string) (resp.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setDeadline(); err != nil {
		return resp.Value{}, err
	}
	defer c.clearDeadline()

	if err := c.Send(args...); err != nil {
		return resp.Value{}, err
	}
	return c.reader.ReadValue()
}

// Send writes a command without waiting for a reply.
func (c *Client) Send(args ...string) error {
	if err := c.writer.WriteCommand(args...); err != nil {
		return err
	}
	return c.writer.Flush()
}

// ReadValue reads the next value sent by the server.
func (c *Client) ReadValue() (resp.Value, error) {
	return c.reader.ReadValue()
}

// ReadSnapshot reads a raw $<len> payload as sent after FULLRESYNC.
func (c *Client) ReadSnapshot() ([]byte, error) {
	return c.reader.ReadSnapshot()
}

// SetDeadline sets the deadline of the underlying connection. Used by the
// low level methods, Do manages its own deadline.
func (c *Client) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Conn returns the underlying connection.
func (c *Client) Conn() net.Conn {
	return c.conn
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) setDeadline() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

func (c *Client) clearDeadline() {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Time{})
	}
}
