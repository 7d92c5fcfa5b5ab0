package server

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/ValentinKolb/redkv/lib/command"
	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/ValentinKolb/redkv/rpc/replication"
)

// session is the per connection state.
type session struct {
	conn   net.Conn
	reader *resp.Reader
	writer *resp.Writer

	// follower is set once the connection announced itself as a follower.
	follower *replication.Follower
	// replica is set after a successful PSYNC, the connection then only
	// receives propagated commands.
	replica bool
	// closing ends the session after the current command.
	closing bool
}

func newSession(conn net.Conn) *session {
	return &session{
		conn:   conn,
		reader: resp.NewReader(conn),
		writer: resp.NewWriter(conn),
	}
}

// HandleConn serves one client connection until it is closed, a protocol
// error occurs or ctx is cancelled. Requests are answered in order. After
// each request pending propagations are flushed to the followers.
func (s *Server) HandleConn(ctx context.Context, conn net.Conn) {
	sess := newSession(conn)
	s.metrics.connectionOpened()
	defer s.metrics.connectionClosed()
	defer s.detach(sess)

	Logger.Debugf("Client %s connected", conn.RemoteAddr())
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	for ctx.Err() == nil {
		if timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(timeout))
		}

		v, err := sess.reader.ReadValue()
		if err != nil {
			s.readFailed(sess, err)
			return
		}

		start := time.Now()
		name := s.handleRequest(sess, v)
		if err := sess.writer.Flush(); err != nil {
			Logger.Debugf("Writing reply to %s failed: %v", conn.RemoteAddr(), err)
			return
		}
		s.metrics.commandDone(name, start)
		s.flushReplicas()

		if sess.closing {
			return
		}
		if sess.replica {
			s.serveReplica(ctx, sess)
			return
		}
	}
}

// handleRequest parses and executes one request and buffers the reply.
// It returns the command name for the metrics.
func (s *Server) handleRequest(sess *session, v resp.Value) string {
	cmd, err := s.table.Parse(v)
	if err != nil {
		s.metrics.commandRejected()
		var ce *command.Error
		if errors.As(err, &ce) {
			_ = sess.writer.WriteValue(ce.Reply())
		} else {
			_ = sess.writer.WriteError("ERR " + err.Error())
		}
		return "rejected"
	}

	reply, ok := s.execute(sess, cmd)
	if ok {
		_ = sess.writer.WriteValue(reply)
	}
	return cmd.Name()
}

func (s *Server) readFailed(sess *session, err error) {
	addr := sess.conn.RemoteAddr()
	switch {
	case errors.Is(err, io.EOF):
		Logger.Debugf("Client %s disconnected", addr)
	case errors.Is(err, resp.ErrProtocol), errors.Is(err, resp.ErrLimitExceeded):
		Logger.Warningf("Protocol error from %s: %v", addr, err)
		s.metrics.commandRejected()
		_ = sess.writer.WriteError("ERR Protocol error: " + err.Error())
		_ = sess.writer.Flush()
	default:
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			Logger.Debugf("Client %s timed out", addr)
			return
		}
		Logger.Debugf("Reading from %s failed: %v", addr, err)
	}
}

// serveReplica keeps a synced follower connection open. Whatever the
// follower sends (acknowledgements) is read and dropped until it goes away.
func (s *Server) serveReplica(ctx context.Context, sess *session) {
	_ = sess.conn.SetReadDeadline(time.Time{})
	id := sess.follower.ID
	for ctx.Err() == nil {
		v, err := sess.reader.ReadValue()
		if err != nil {
			Logger.Infof("Follower %s disconnected: %v", id, err)
			return
		}
		Logger.Debugf("Follower %s sent %s", id, v)
	}
}

// detach removes the follower registered by the session, if any.
func (s *Server) detach(sess *session) {
	if sess.follower == nil {
		return
	}
	s.state.removeFollowers(sess.follower)
}

// flushReplicas hands pending propagations to the follower queues and drops
// followers that were stopped or fell behind.
func (s *Server) flushReplicas() {
	result := s.state.propagator.Flush()
	if result.Commands == 0 {
		return
	}
	s.metrics.propagated(result)
	if len(result.Failed) > 0 {
		s.state.removeFollowers(result.Failed...)
	}
}
