package server

import (
	"sync"

	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/ValentinKolb/redkv/lib/store"
	"github.com/ValentinKolb/redkv/rpc/replication"
)

// State is the shared state of a server.
//
// Thread-safety: mu serializes writes against each other and against the
// snapshot taken for a resync. A write is applied to the store and enqueued
// for propagation under the same write lock, so the propagation order is the
// apply order. Reads take the read lock.
type State struct {
	mu         sync.RWMutex
	store      store.IStore
	info       replication.Info
	registry   *replication.Registry
	propagator *replication.Propagator
}

func newState(st store.IStore, info replication.Info) *State {
	registry := replication.NewRegistry()
	return &State{
		store:      st,
		info:       info,
		registry:   registry,
		propagator: replication.NewPropagator(registry),
	}
}

// Info returns a copy of the replication state.
func (st *State) Info() replication.Info {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.info
}

// Followers returns the number of registered followers.
func (st *State) Followers() int {
	return st.registry.Len()
}

func (st *State) setLinkUp(up bool) {
	st.mu.Lock()
	st.info.LinkUp = up
	st.mu.Unlock()
}

// propagate serializes a write command, advances the replication offset by
// its size and queues it if any follower is registered. The caller holds the
// write lock.
func (st *State) propagate(args []string) {
	b := resp.AppendCommand(nil, args...)
	st.info.Offset += int64(len(b))
	if st.registry.Len() > 0 {
		st.propagator.Enqueue(b)
	}
}

func (st *State) addFollower(f *replication.Follower) {
	st.mu.Lock()
	st.registry.Add(f)
	st.mu.Unlock()
}

// removeFollowers deregisters and closes the given followers.
func (st *State) removeFollowers(followers ...*replication.Follower) {
	st.mu.Lock()
	for _, f := range followers {
		if st.registry.Remove(f) {
			Logger.Infof("Removed follower %s (%s)", f.ID, f.RemoteAddr)
		}
	}
	st.mu.Unlock()

	for _, f := range followers {
		_ = f.Close()
	}
}
