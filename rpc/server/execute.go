package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/redkv/lib/command"
	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/ValentinKolb/redkv/lib/store"
	"github.com/ValentinKolb/redkv/lib/stream"
	"github.com/ValentinKolb/redkv/rpc/replication"
)

const (
	msgReadOnly      = "READONLY You can't write against a read only replica."
	msgPSyncFollower = "ERR PSYNC is not supported by a replica"
	msgPSyncPartial  = "ERR only full resynchronization is supported"
)

// execute runs cmd for the session and returns the reply. ok is false when
// the command wrote its reply itself (PSYNC).
func (s *Server) execute(sess *session, cmd command.Command) (reply resp.Value, ok bool) {
	switch c := cmd.(type) {
	case command.Ping:
		if c.HasMessage {
			return resp.BulkString(c.Message), true
		}
		return resp.SimpleString("PONG"), true

	case command.Echo:
		if c.Bulk {
			return resp.BulkString(c.Message), true
		}
		return resp.SimpleString(c.Message), true

	case command.Get:
		return s.get(c), true
	case command.Set:
		return s.set(c), true
	case command.Type:
		return s.typeOf(c), true
	case command.XAdd:
		return s.xadd(c), true
	case command.XRange:
		return s.xrange(c), true
	case command.Info:
		return s.info(c), true
	case command.ReplConf:
		return s.replconf(sess, c), true
	case command.PSync:
		return s.psync(sess, c)

	default:
		return resp.SimpleError(fmt.Sprintf("ERR unknown command '%s'", cmd.Name())), true
	}
}

// --------------------------------------------------------------------------
// Keyspace
// --------------------------------------------------------------------------

func (s *Server) get(c command.Get) resp.Value {
	s.state.mu.RLock()
	value, ok, err := s.state.store.Get(c.Key)
	s.state.mu.RUnlock()

	if err != nil {
		Logger.Debugf("GET %q failed: %v", c.Key, err)
		return resp.NullBulkString()
	}
	if !ok {
		return resp.NullBulkString()
	}
	return resp.BulkString(string(value))
}

func (s *Server) set(c command.Set) resp.Value {
	s.state.mu.Lock()
	if s.state.info.Role == replication.RoleFollower {
		s.state.mu.Unlock()
		return resp.SimpleError(msgReadOnly)
	}
	err := s.state.store.SetE(c.Key, []byte(c.Value), c.TTL)
	if err == nil {
		s.state.propagate(c.ReplicaArgs())
	}
	s.state.mu.Unlock()

	if err != nil {
		Logger.Debugf("SET %q failed: %v", c.Key, err)
		return resp.NullBulkString()
	}
	return resp.SimpleString("OK")
}

func (s *Server) typeOf(c command.Type) resp.Value {
	s.state.mu.RLock()
	kt, err := s.state.store.Type(c.Key)
	s.state.mu.RUnlock()

	if err != nil {
		return resp.SimpleString(string(store.KeyTypeNone))
	}
	return resp.SimpleString(string(kt))
}

// --------------------------------------------------------------------------
// Streams
// --------------------------------------------------------------------------

func (s *Server) xadd(c command.XAdd) resp.Value {
	s.state.mu.Lock()
	if s.state.info.Role == replication.RoleFollower {
		s.state.mu.Unlock()
		return resp.SimpleError(msgReadOnly)
	}
	id, err := s.state.store.XAdd(c.Key, c.ID, c.Fields)
	if err == nil {
		s.state.propagate(c.ReplicaArgs(id))
	}
	s.state.mu.Unlock()

	if err != nil {
		var se *stream.Error
		if errors.As(err, &se) {
			return resp.SimpleError(se.Msg)
		}
		Logger.Debugf("XADD %q failed: %v", c.Key, err)
		return resp.NullBulkString()
	}
	return resp.BulkString(id.String())
}

func (s *Server) xrange(c command.XRange) resp.Value {
	s.state.mu.RLock()
	entries, err := s.state.store.XRange(c.Key, c.Start, c.End, c.Count)
	s.state.mu.RUnlock()

	if err != nil {
		Logger.Debugf("XRANGE %q failed: %v", c.Key, err)
		return resp.NullBulkString()
	}
	out := make([]resp.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, resp.Array(resp.BulkString(e.ID.String()), resp.BulkStrings(e.Fields...)))
	}
	return resp.Array(out...)
}

// --------------------------------------------------------------------------
// Server and replication
// --------------------------------------------------------------------------

// info renders the requested sections from one read lock acquisition.
// Sections are joined by a blank line.
func (s *Server) info(c command.Info) resp.Value {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	sections := make([]string, 0, len(c.Sections))
	for _, name := range c.Sections {
		switch name {
		case "replication":
			sections = append(sections, s.state.info.String())
		case "stats":
			sections = append(sections, s.metrics.infoStats())
		case "keyspace":
			sections = append(sections, s.keyspace())
		}
	}
	return resp.BulkString(strings.Join(sections, "\r\n\r\n"))
}

// keyspace renders the keyspace section. The caller holds the read lock.
func (s *Server) keyspace() string {
	dbInfo, err := s.state.store.GetDBInfo()
	if err != nil {
		return "db0:keys=0,expires=0,streams=0"
	}
	return fmt.Sprintf("db0:keys=%d,expires=%d,streams=%d", dbInfo.Keys, dbInfo.Expires, s.state.store.StreamCount())
}

// replconf registers the session as a follower when it announces its
// listening port. Capabilities are accepted and ignored.
func (s *Server) replconf(sess *session, c command.ReplConf) resp.Value {
	if c.ListeningPort == 0 || sess.follower != nil || s.state.Info().Role != replication.RoleLeader {
		return resp.SimpleString("OK")
	}
	sess.follower = replication.NewFollower(sess.conn, c.ListeningPort, s.followerWriteTimeout())
	s.state.addFollower(sess.follower)
	s.metrics.followerAttached()
	Logger.Infof("Follower %s registered from %s (listening port %d)", sess.follower.ID, sess.follower.RemoteAddr, c.ListeningPort)
	return resp.SimpleString("OK")
}

// psync answers a full resync: the FULLRESYNC line and the snapshot are
// written straight to the connection and the follower takes part in
// propagation from then on.
func (s *Server) psync(sess *session, c command.PSync) (resp.Value, bool) {
	if s.state.Info().Role != replication.RoleLeader {
		return resp.SimpleError(msgPSyncFollower), true
	}
	if c.ReplID != "?" {
		return resp.SimpleError(msgPSyncPartial), true
	}
	if sess.follower == nil {
		sess.follower = replication.NewFollower(sess.conn, 0, s.followerWriteTimeout())
		s.state.addFollower(sess.follower)
		s.metrics.followerAttached()
		Logger.Infof("Follower %s registered from %s", sess.follower.ID, sess.follower.RemoteAddr)
	}

	err := sess.follower.Sync(func() []byte {
		info := s.state.Info()
		b := resp.SimpleString(fmt.Sprintf("FULLRESYNC %s %d", info.ReplID, info.Offset)).AppendTo(nil)
		return resp.AppendSnapshot(b, s.snapshot)
	})
	if err != nil {
		Logger.Warningf("Full resync of follower %s failed: %v", sess.follower.ID, err)
		sess.closing = true
		return resp.Value{}, false
	}

	Logger.Infof("Follower %s synced (%d byte snapshot)", sess.follower.ID, len(s.snapshot))
	sess.replica = true
	return resp.Value{}, false
}
