package util

import (
	"sync"
	"testing"
	"time"
)

// TestMPSCBasic tests push and receive from a single producer
func TestMPSCBasic(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		if !q.Push(i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case v := <-q.Recv():
			if v != i {
				t.Errorf("Expected %d, got %d", i, v)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	select {
	case v := <-q.Recv():
		t.Errorf("Queue should be empty, but got %d", v)
	case <-time.After(10 * time.Millisecond):
	}
}

// TestMPSCConcurrentProducers verifies that no item is lost or duplicated
func TestMPSCConcurrentProducers(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	const producers = 8
	const perProducer = 2000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(p*perProducer + i)
			}
		}(p)
	}

	seen := make(map[int]bool, producers*perProducer)
	lastPerProducer := make(map[int]int)
	for len(seen) < producers*perProducer {
		select {
		case v := <-q.Recv():
			if seen[v] {
				t.Fatalf("Duplicate item %d", v)
			}
			seen[v] = true

			// items of one producer keep their order
			p := v / perProducer
			if last, ok := lastPerProducer[p]; ok && v < last {
				t.Fatalf("Producer %d out of order: %d after %d", p, v, last)
			}
			lastPerProducer[p] = v
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout after %d of %d items", len(seen), producers*perProducer)
		}
	}
	wg.Wait()
}

// TestMPSCClose tests that queued items drain before the channel closes
func TestMPSCClose(t *testing.T) {
	q := NewMPSC[string]()
	q.Push("a")
	q.Push("b")
	q.Close()

	if q.Push("c") {
		t.Error("Push after Close should return false")
	}
	if !q.IsClosed() {
		t.Error("IsClosed should report true")
	}

	var got []string
	timeout := time.After(time.Second)
	for {
		select {
		case v, ok := <-q.Recv():
			if !ok {
				if len(got) != 2 || got[0] != "a" || got[1] != "b" {
					t.Errorf("Expected [a b] before close, got %v", got)
				}
				return
			}
			got = append(got, v)
		case <-timeout:
			t.Fatal("Recv channel was not closed")
		}
	}
}
