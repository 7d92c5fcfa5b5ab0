package replication

import (
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("replication")

// FlushResult describes one propagation pass.
type FlushResult struct {
	Commands int         // commands in the flushed batch
	Bytes    int         // size of the batch in bytes
	Queued   int         // followers the batch was handed to
	Failed   []*Follower // stopped followers, to be removed by the caller
}

// Propagator buffers serialized write commands until they are flushed to the
// synced followers of a registry.
//
// Thread-safety: all methods are safe for concurrent use. Flushes are
// serialized so batches reach every follower queue in enqueue order.
type Propagator struct {
	registry *Registry

	queueMu sync.Mutex
	pending [][]byte

	flushMu sync.Mutex
}

func NewPropagator(registry *Registry) *Propagator {
	return &Propagator{registry: registry}
}

// Enqueue appends a serialized command to the pending queue. The server
// calls it while holding its state write lock so the queue order matches
// the order the writes were applied in.
func (p *Propagator) Enqueue(cmd []byte) {
	p.queueMu.Lock()
	p.pending = append(p.pending, cmd)
	p.queueMu.Unlock()
}

// Pending returns the number of queued commands.
func (p *Propagator) Pending() int {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return len(p.pending)
}

func (p *Propagator) drain() [][]byte {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	batch := p.pending
	p.pending = nil
	return batch
}

// Flush hands the pending queue as one batch to every synced follower and
// clears it. It never waits for a follower write: each follower drains its
// own queue. Followers that are stopped or whose queue overflowed are
// reported, not removed: the caller removes them after the pass.
func (p *Propagator) Flush() FlushResult {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	batch := p.drain()
	if len(batch) == 0 {
		return FlushResult{}
	}

	size := 0
	for _, cmd := range batch {
		size += len(cmd)
	}
	payload := make([]byte, 0, size)
	for _, cmd := range batch {
		payload = append(payload, cmd...)
	}

	result := FlushResult{Commands: len(batch), Bytes: size}
	for _, f := range p.registry.Synced() {
		if f.Offer(payload) {
			result.Queued++
		} else {
			result.Failed = append(result.Failed, f)
		}
	}
	return result
}
