package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/redkv/lib/command"
	"github.com/ValentinKolb/redkv/lib/db"
	"github.com/ValentinKolb/redkv/lib/db/engines/maple"
	"github.com/ValentinKolb/redkv/lib/store"
	"github.com/ValentinKolb/redkv/lib/store/lstore"
	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/replication"
	"github.com/ValentinKolb/redkv/rpc/transport"
	"github.com/ValentinKolb/redkv/rpc/transport/http"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// followerWriteTimeout bounds writes to a follower when no connection timeout is configured.
const followerWriteTimeout = 5 * time.Second

// Server is a redkv server. It answers clients on one transport and, depending
// on its role, propagates writes to followers or follows a leader itself.
type Server struct {
	config          common.ServerConfig
	transport       transport.IServerTransport
	clientTransport transport.IClientTransport
	table           *command.Table
	state           *State
	metrics         *Metrics
	snapshot        []byte
}

// NewServer creates a server with a maple backed local store.
// clientTransport is used to reach the leader and may be nil for a leader.
//
// Usage:
//
//	s := server.NewServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		tcp.NewTCPClientTransport(),
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewServer(
	config common.ServerConfig,
	serverTransport transport.IServerTransport,
	clientTransport transport.IClientTransport,
) *Server {
	dbFactory := func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{
			NumShards:  config.Shards,
			GCInterval: config.GCInterval,
		})
	}
	st := lstore.NewLocalStore(dbFactory, &lstore.Options{MaxValueSize: config.MaxValueSize})
	return newServer(config, st, serverTransport, clientTransport)
}

func newServer(
	config common.ServerConfig,
	st store.IStore,
	serverTransport transport.IServerTransport,
	clientTransport transport.IClientTransport,
) *Server {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	info := replication.NewLeaderInfo()
	if config.ReplicaOf.Enabled() {
		info = replication.NewFollowerInfo(config.ReplicaOf.Host, config.ReplicaOf.Port)
	}

	s := &Server{
		config:          config,
		transport:       serverTransport,
		clientTransport: clientTransport,
		table:           command.DefaultTable(),
		state:           newState(st, info),
		snapshot:        emptySnapshot(),
	}
	s.metrics = newMetrics(s.state)

	Logger.Infof("Created redkv server (role %s)", info.Role)
	Logger.Infof(config.String())
	return s
}

// Serve registers the connection handler and runs the listener, the metrics
// endpoint and, for a follower, the replication link until ctx is cancelled
// or one of them fails. The store is closed before Serve returns.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errOnce.Do(func() { firstErr = fmt.Errorf("%s: %w", name, err) })
				cancel()
			}
		}()
	}

	s.transport.RegisterHandler(s.HandleConn)
	run("listener", func() error {
		return s.transport.Listen(ctx, s.config)
	})

	if s.config.MetricsEndpoint != "" {
		ms := http.NewMetricsServer(s.config.MetricsEndpoint, s.metrics.WritePrometheus, s.health)
		run("metrics", func() error {
			return ms.Listen(ctx)
		})
	}

	if s.config.ReplicaOf.Enabled() {
		run("replication", func() error {
			select {
			case <-s.transport.Ready():
			case <-ctx.Done():
				return nil
			}
			return s.RunFollower(ctx)
		})
	}

	wg.Wait()
	s.metrics.Close()
	if err := s.state.store.Close(); err != nil {
		Logger.Warningf("Closing store failed: %v", err)
	}
	return firstErr
}

// Addr returns the address of the client listener once it is ready.
func (s *Server) Addr() net.Addr {
	return s.transport.Addr()
}

// Info returns a copy of the replication state.
func (s *Server) Info() replication.Info {
	return s.state.Info()
}

// health reports an error if a follower lost its link to the leader.
func (s *Server) health() error {
	info := s.state.Info()
	if info.Role == replication.RoleFollower && !info.LinkUp {
		return errors.New("link to leader is down")
	}
	return nil
}

// listeningPort is the port announced to the leader. With port 0 the
// kernel picked one, so it is taken from the bound listener.
func (s *Server) listeningPort() int {
	if s.config.Port != 0 {
		return s.config.Port
	}
	if addr := s.transport.Addr(); addr != nil {
		if _, p, err := net.SplitHostPort(addr.String()); err == nil {
			if port, err := strconv.Atoi(p); err == nil {
				return port
			}
		}
	}
	return 0
}

func (s *Server) followerWriteTimeout() time.Duration {
	if s.config.TimeoutSecond > 0 {
		return time.Duration(s.config.TimeoutSecond) * time.Second
	}
	return followerWriteTimeout
}
