package server

import (
	"context"
	"time"

	"github.com/ValentinKolb/redkv/lib/command"
	"github.com/ValentinKolb/redkv/rpc/replication"
	"github.com/ValentinKolb/redkv/rpc/transport/base"
)

// reconnectDelay is the pause before a lost leader link is re-established.
const reconnectDelay = time.Second

// RunFollower attaches the server to its leader and applies the propagated
// writes until ctx is cancelled. The first attach is retried
// HandshakeRetries times, if it still fails the error is returned. A link
// that drops later is re-established in the background.
func (s *Server) RunFollower(ctx context.Context) error {
	attached := false
	for {
		link, err := s.connectLeader(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !attached {
				return err
			}
			Logger.Errorf("Reconnecting to leader %s failed: %v", s.config.ReplicaOf, err)
			if !sleepCtx(ctx, reconnectDelay) {
				return nil
			}
			continue
		}

		attached = true
		s.state.setLinkUp(true)
		err = s.applyStream(ctx, link)
		s.state.setLinkUp(false)
		_ = link.Close()

		if ctx.Err() != nil {
			return nil
		}
		Logger.Warningf("Lost link to leader %s: %v", s.config.ReplicaOf, err)
		if !sleepCtx(ctx, reconnectDelay) {
			return nil
		}
	}
}

// connectLeader runs the handshake with retries.
func (s *Server) connectLeader(ctx context.Context) (*replication.Link, error) {
	var link *replication.Link
	err := base.Retry(ctx, s.config.HandshakeRetries+1, base.InitialBackoff, func(attempt int) error {
		l, err := replication.Handshake(ctx, replication.HandshakeConfig{
			Leader:        s.config.ReplicaOf,
			ListeningPort: s.listeningPort(),
			Timeout:       s.config.HandshakeTimeout,
			Transport:     s.clientTransport,
		})
		if err != nil {
			Logger.Warningf("Handshake attempt %d with leader %s failed: %v", attempt+1, s.config.ReplicaOf, err)
			return err
		}
		link = l
		return nil
	})
	return link, err
}

// applyStream applies the commands the leader propagates until the link
// fails or ctx is cancelled. Nothing is replied to the leader.
func (s *Server) applyStream(ctx context.Context, link *replication.Link) error {
	stop := context.AfterFunc(ctx, func() {
		_ = link.Close()
	})
	defer stop()

	for {
		v, err := link.Client.ReadValue()
		if err != nil {
			return err
		}
		cmd, err := s.table.Parse(v)
		if err != nil {
			Logger.Warningf("Ignoring invalid command from leader: %v", err)
			continue
		}
		s.applyReplicated(cmd)
	}
}

// applyReplicated applies one propagated write. Other commands, like the
// leader's PING heartbeats, are ignored.
func (s *Server) applyReplicated(cmd command.Command) {
	switch c := cmd.(type) {
	case command.Set:
		s.state.mu.Lock()
		err := s.state.store.SetE(c.Key, []byte(c.Value), c.TTL)
		s.state.mu.Unlock()
		if err != nil {
			Logger.Errorf("Applying SET %q from leader failed: %v", c.Key, err)
		}
	case command.XAdd:
		s.state.mu.Lock()
		_, err := s.state.store.XAdd(c.Key, c.ID, c.Fields)
		s.state.mu.Unlock()
		if err != nil {
			Logger.Errorf("Applying XADD %q from leader failed: %v", c.Key, err)
		}
	default:
		Logger.Debugf("Ignoring %s from leader", cmd.Name())
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
