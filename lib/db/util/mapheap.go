// This file provides the deadline queue used by the garbage collector.
//
// A binary heap ordered by deadline is combined with a map from key to heap
// position, so that a key can be rescheduled or dropped in O(log n) when it
// is overwritten or deleted before its deadline.
//
// The heap is not thread-safe. Every maple shard owns one heap that only its
// collector goroutine touches.
package util

import (
	"container/heap"
	"fmt"
)

// HeapItem is one scheduled key
type HeapItem[K comparable] struct {
	Key      K
	Deadline int64 // unix milliseconds
	index    int
}

func (i *HeapItem[K]) String() string {
	return fmt.Sprintf("{Key: %v, Deadline: %d}", i.Key, i.Deadline)
}

// MapHeap is a min-heap by deadline with key based access
type MapHeap[K comparable] struct {
	items []*HeapItem[K]
	byKey map[K]*HeapItem[K]
}

// NewMapHeap creates an empty heap
func NewMapHeap[K comparable]() *MapHeap[K] {
	return &MapHeap[K]{
		items: make([]*HeapItem[K], 0),
		byKey: make(map[K]*HeapItem[K]),
	}
}

// heap.Interface

func (h *MapHeap[K]) Len() int { return len(h.items) }

func (h *MapHeap[K]) Less(i, j int) bool {
	return h.items[i].Deadline < h.items[j].Deadline
}

func (h *MapHeap[K]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *MapHeap[K]) Push(x any) {
	it := x.(*HeapItem[K])
	it.index = len(h.items)
	h.items = append(h.items, it)
	h.byKey[it.Key] = it
}

func (h *MapHeap[K]) Pop() any {
	n := len(h.items)
	it := h.items[n-1]
	h.items[n-1] = nil
	it.index = -1
	h.items = h.items[:n-1]
	delete(h.byKey, it.Key)
	return it
}

// Schedule adds key with the given deadline, or moves it if it is already
// scheduled.
func (h *MapHeap[K]) Schedule(key K, deadline int64) {
	if it, ok := h.byKey[key]; ok {
		it.Deadline = deadline
		heap.Fix(h, it.index)
		return
	}
	heap.Push(h, &HeapItem[K]{Key: key, Deadline: deadline})
}

// Remove unschedules key and returns its deadline
func (h *MapHeap[K]) Remove(key K) (int64, bool) {
	it, ok := h.byKey[key]
	if !ok {
		return 0, false
	}
	heap.Remove(h, it.index)
	return it.Deadline, true
}

// Peek returns the item with the earliest deadline without removing it
func (h *MapHeap[K]) Peek() (*HeapItem[K], bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// PopDue removes and returns every item whose deadline is <= now, earliest first
func (h *MapHeap[K]) PopDue(now int64) []*HeapItem[K] {
	var due []*HeapItem[K]
	for len(h.items) > 0 && h.items[0].Deadline <= now {
		due = append(due, heap.Pop(h).(*HeapItem[K]))
	}
	return due
}

// Contains reports whether key is scheduled
func (h *MapHeap[K]) Contains(key K) bool {
	_, ok := h.byKey[key]
	return ok
}
