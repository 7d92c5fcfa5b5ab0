package maple

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/lib/db"
	dbtesting "github.com/ValentinKolb/redkv/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})

	dbtesting.RunKVDBTests(t, "MapleDB/SingleShard", func() db.KVDB {
		return NewMapleDB(&DBOptions{NumShards: 1, GCInterval: 10 * time.Millisecond})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

// fakeClock is a manually advanced time source
type fakeClock struct {
	nowMs atomic.Int64
}

func (c *fakeClock) Now() time.Time {
	return time.UnixMilli(c.nowMs.Load())
}

func (c *fakeClock) Advance(d time.Duration) {
	c.nowMs.Add(d.Milliseconds())
}

func TestExpiryBoundary(t *testing.T) {
	clock := &fakeClock{}
	clock.nowMs.Store(1_000)

	database := NewMapleDB(&DBOptions{NumShards: 2, Clock: clock.Now})
	defer database.Close()

	database.SetE("k", []byte("v"), 50*time.Millisecond)

	clock.Advance(49 * time.Millisecond)
	if _, ok := database.Get("k"); !ok {
		t.Fatal("Key must be readable one millisecond before its deadline")
	}

	clock.Advance(time.Millisecond)
	if _, ok := database.Get("k"); ok {
		t.Fatal("Key must be absent once now == deadline")
	}

	// repeated reads of an expired key neither revive nor remove it
	size := database.Len()
	for i := 0; i < 3; i++ {
		if database.Has("k") {
			t.Errorf("Has returned true for an expired key")
		}
	}
	if database.Len() != size {
		t.Errorf("Expected Len %d after reads, got %d", size, database.Len())
	}
}

func TestCollectorRemovesExpired(t *testing.T) {
	clock := &fakeClock{}
	clock.nowMs.Store(1_000)

	database := NewMapleDB(&DBOptions{NumShards: 1, GCInterval: 5 * time.Millisecond, Clock: clock.Now})
	defer database.Close()

	database.SetE("short", []byte("v"), 10*time.Millisecond)
	database.SetE("long", []byte("v"), time.Hour)
	database.Set("plain", []byte("v"))

	clock.Advance(20 * time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for database.Len() != 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if database.Len() != 2 {
		t.Fatalf("Expected the collector to remove the expired key, Len=%d", database.Len())
	}

	info := database.GetInfo()
	if info.Keys != 2 || info.Expires != 1 {
		t.Errorf("Expected 2 keys and 1 expiring key, got %d and %d", info.Keys, info.Expires)
	}
}

func TestSupportedFeatures(t *testing.T) {
	database := NewMapleDB(nil)
	defer database.Close()

	want := []db.Feature{db.FeatureSet, db.FeatureSetE, db.FeatureGet, db.FeatureHas, db.FeatureGarbageCollect}
	all := db.Feature(0)
	for _, f := range want {
		if !database.SupportsFeature(f) {
			t.Errorf("Expected %s to be supported", f)
		}
		all |= f
	}
	if !database.SupportsFeature(all) {
		t.Errorf("Expected the combined features to be supported")
	}
	if database.SupportsFeature(all << 1) {
		t.Errorf("Expected unknown features to be unsupported")
	}

	got := database.GetInfo().SupportedFeatures
	if len(got) != len(want) {
		t.Fatalf("Expected %d reported features, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Feature %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
