package util

import (
	"math/rand"
	"sort"
	"testing"
)

// TestMapHeapSchedule tests adding keys and reading the earliest deadline
func TestMapHeapSchedule(t *testing.T) {
	h := NewMapHeap[string]()

	h.Schedule("a", 100)
	h.Schedule("b", 200)
	h.Schedule("c", 50)

	if h.Len() != 3 {
		t.Fatalf("Heap should have 3 items, but has %d", h.Len())
	}

	for _, key := range []string{"a", "b", "c"} {
		if !h.Contains(key) {
			t.Errorf("Heap should contain key %s", key)
		}
	}

	item, ok := h.Peek()
	if !ok {
		t.Fatal("Peek() should return an item")
	}
	if item.Key != "c" || item.Deadline != 50 {
		t.Errorf("Expected earliest item to be (c,50), got %s", item)
	}
}

// TestMapHeapReschedule tests moving an already scheduled key
func TestMapHeapReschedule(t *testing.T) {
	h := NewMapHeap[string]()
	h.Schedule("a", 100)
	h.Schedule("b", 200)

	h.Schedule("a", 300)
	if h.Len() != 2 {
		t.Errorf("Rescheduling must not add a second item, got %d items", h.Len())
	}
	if item, _ := h.Peek(); item.Key != "b" {
		t.Errorf("Earliest item should now be b, got %s", item.Key)
	}

	h.Schedule("a", 10)
	if item, _ := h.Peek(); item.Key != "a" || item.Deadline != 10 {
		t.Errorf("Earliest item should now be (a,10), got %s", item)
	}
}

// TestMapHeapRemove tests removing keys before their deadline
func TestMapHeapRemove(t *testing.T) {
	h := NewMapHeap[string]()
	h.Schedule("a", 100)
	h.Schedule("b", 200)
	h.Schedule("c", 300)

	deadline, ok := h.Remove("b")
	if !ok {
		t.Fatal("Remove should return true for a scheduled key")
	}
	if deadline != 200 {
		t.Errorf("Remove should return deadline 200, got %d", deadline)
	}
	if h.Contains("b") || h.Len() != 2 {
		t.Errorf("Key b should be gone, len=%d", h.Len())
	}

	if _, ok := h.Remove("missing"); ok {
		t.Error("Remove should return false for an unknown key")
	}
}

// TestMapHeapPopDue tests that only due items are popped, in deadline order
func TestMapHeapPopDue(t *testing.T) {
	h := NewMapHeap[int]()

	deadlines := rand.Perm(100)
	for key, d := range deadlines {
		h.Schedule(key, int64(d))
	}

	due := h.PopDue(49)
	if len(due) != 50 {
		t.Fatalf("Expected 50 due items, got %d", len(due))
	}
	if !sort.SliceIsSorted(due, func(i, j int) bool { return due[i].Deadline < due[j].Deadline }) {
		t.Error("Due items should be returned in deadline order")
	}
	for _, item := range due {
		if h.Contains(item.Key) {
			t.Errorf("Popped key %d should no longer be scheduled", item.Key)
		}
	}

	if h.Len() != 50 {
		t.Errorf("Expected 50 remaining items, got %d", h.Len())
	}
	if next, _ := h.Peek(); next.Deadline != 50 {
		t.Errorf("Expected next deadline 50, got %d", next.Deadline)
	}

	if len(h.PopDue(-1)) != 0 {
		t.Error("No item should be due before the earliest deadline")
	}
}
