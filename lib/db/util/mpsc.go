// This file provides a lock-free multi-producer single-consumer queue.
//
//   - Producers append to a linked list with CAS on the tail, they never block.
//   - A single consumer goroutine drains the list into the channel returned by Recv.
//   - The queue is unbounded. Items of one producer keep their order, items of
//     concurrent producers are ordered by whoever completes the append first.
package util

import (
	"runtime"
	"sync/atomic"
)

type mpscNode[T any] struct {
	value T
	next  atomic.Pointer[mpscNode[T]]
}

// MPSC is a lock-free multi-producer single-consumer queue
type MPSC[T any] struct {
	head   atomic.Pointer[mpscNode[T]] // sentinel, only moved by the consumer
	tail   atomic.Pointer[mpscNode[T]]
	wake   chan struct{}
	out    chan T
	closed atomic.Bool
}

// NewMPSC creates a queue and starts its consumer goroutine
func NewMPSC[T any]() *MPSC[T] {
	sentinel := &mpscNode[T]{}
	q := &MPSC[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.consume()
	return q
}

// Push appends value. It returns false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	n := &mpscNode[T]{value: value}
	for spins := 0; ; spins++ {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next != nil {
			// another producer linked its node but has not moved the tail yet
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			break
		}
		if spins > 8 {
			runtime.Gosched()
		}
	}

	q.signal()
	return true
}

// Recv returns the channel the queued values are delivered on.
// The channel is closed after Close once all queued values were delivered.
func (q *MPSC[T]) Recv() <-chan T {
	return q.out
}

// Close stops accepting values. Values already queued are still delivered.
func (q *MPSC[T]) Close() {
	if q.closed.CompareAndSwap(false, true) {
		q.signal()
	}
}

// IsClosed reports whether Close was called
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len counts the queued values. O(n), meant for tests and debugging.
func (q *MPSC[T]) Len() int {
	count := 0
	for n := q.head.Load().next.Load(); n != nil; n = n.next.Load() {
		count++
	}
	return count
}

// signal wakes the consumer. The buffered channel keeps one pending wake up,
// so a signal sent while the consumer is draining is not lost.
func (q *MPSC[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *MPSC[T]) consume() {
	defer close(q.out)

	var zero T
	for {
		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			value := next.value
			next.value = zero
			q.head.Store(next)
			q.out <- value
		}

		if q.closed.Load() && q.head.Load().next.Load() == nil {
			return
		}
		<-q.wake
	}
}
