package replication

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/ValentinKolb/redkv/rpc/client"
	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/transport"
)

// HandshakeConfig configures one handshake attempt.
type HandshakeConfig struct {
	Leader        common.ReplicaOf
	ListeningPort int
	Timeout       time.Duration // bounds the whole exchange (0 = no bound)
	Transport     transport.IClientTransport
}

// Link is an established connection to the leader after a full resync.
// The leader streams propagated commands over Client from now on.
type Link struct {
	Client   *client.Client
	ReplID   string
	Offset   int64
	Snapshot []byte
}

// Close closes the connection to the leader.
func (l *Link) Close() error {
	return l.Client.Close()
}

// Handshake connects to the leader and runs the four step handshake. Each
// step waits for the reply of the previous one. On any error the connection
// is closed and the caller has to start over, a partial handshake is never
// resumed.
func Handshake(ctx context.Context, cfg HandshakeConfig) (*Link, error) {
	conn, err := cfg.Transport.Dial(ctx, common.ClientConfig{
		Endpoint:      cfg.Leader.Address(),
		Transport:     common.TransportTCP,
		TimeoutSecond: int((cfg.Timeout + time.Second - 1) / time.Second),
		RetryCount:    1,
	})
	if err != nil {
		return nil, &Error{Code: ErrCFailedToConnect, Step: "connect", Err: err}
	}

	c := client.NewClient(conn, 0)
	if cfg.Timeout > 0 {
		_ = c.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.SetDeadline(time.Now())
	})
	defer stop()

	link, err := runHandshake(c, cfg.ListeningPort)
	if err != nil {
		_ = c.Close()
		if ctx.Err() != nil {
			return nil, &Error{Code: ErrCHandshakeFailed, Step: "handshake", Err: ctx.Err()}
		}
		return nil, err
	}

	if err := c.SetDeadline(time.Time{}); err != nil {
		_ = c.Close()
		return nil, &Error{Code: ErrCHandshakeFailed, Step: "handshake", Err: err}
	}
	Logger.Infof("Handshake with leader %s done (replid %s, offset %d, snapshot %d bytes)",
		cfg.Leader.Address(), link.ReplID, link.Offset, len(link.Snapshot))
	return link, nil
}

func runHandshake(c *client.Client, port int) (*Link, error) {
	steps := []struct {
		name   string
		args   []string
		expect string
	}{
		{"PING", []string{"PING"}, "PONG"},
		{"REPLCONF listening-port", []string{"REPLCONF", "listening-port", strconv.Itoa(port)}, "OK"},
		{"REPLCONF capa", []string{"REPLCONF", "capa", "psync2"}, "OK"},
	}
	for _, step := range steps {
		if _, err := exchange(c, step.name, step.args, step.expect); err != nil {
			return nil, err
		}
	}

	const psync = "PSYNC"
	reply, err := exchange(c, psync, []string{"PSYNC", "?", "-1"}, "")
	if err != nil {
		return nil, err
	}
	replID, offset, err := parseFullResync(reply)
	if err != nil {
		return nil, &Error{Code: ErrCUnexpectedResponse, Step: psync, Err: err}
	}

	snapshot, err := c.ReadSnapshot()
	if err != nil {
		return nil, classify("snapshot", err)
	}
	return &Link{Client: c, ReplID: replID, Offset: offset, Snapshot: snapshot}, nil
}

// exchange sends args and reads the reply. A non empty expect must match the
// reply text case-insensitively.
func exchange(c *client.Client, step string, args []string, expect string) (resp.Value, error) {
	if err := c.Send(args...); err != nil {
		return resp.Value{}, classify(step, err)
	}
	reply, err := c.ReadValue()
	if err != nil {
		return resp.Value{}, classify(step, err)
	}
	if !reply.IsString() {
		return resp.Value{}, &Error{Code: ErrCUnexpectedResponse, Step: step, Err: fmt.Errorf("got %s %q", reply.Kind, reply.Str)}
	}
	if expect != "" && !reply.EqualFold(expect) {
		return resp.Value{}, &Error{Code: ErrCUnexpectedResponse, Step: step, Err: fmt.Errorf("expected %s, got %q", expect, reply.Str)}
	}
	return reply, nil
}

func classify(step string, err error) error {
	if errors.Is(err, resp.ErrProtocol) || errors.Is(err, resp.ErrLimitExceeded) {
		return &Error{Code: ErrCInvalidResponse, Step: step, Err: err}
	}
	return &Error{Code: ErrCHandshakeFailed, Step: step, Err: err}
}

// parseFullResync parses "FULLRESYNC <replid> <offset>".
func parseFullResync(v resp.Value) (string, int64, error) {
	fields := strings.Fields(v.Str)
	if len(fields) != 3 || !strings.EqualFold(fields[0], "FULLRESYNC") {
		return "", 0, fmt.Errorf("expected FULLRESYNC, got %q", v.Str)
	}
	offset, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid offset in %q", v.Str)
	}
	return fields[1], offset, nil
}
