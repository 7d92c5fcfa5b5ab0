package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory())
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, factory())
		})

		b.Run("SetWithExpiry", func(b *testing.B) {
			benchmarkSetWithExpiry(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("GetExpired", func(b *testing.B) {
			benchmarkGetExpired(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prefill stores n keys named test-key-<i>
func prefill(database db.KVDB, n int) {
	for i := 0; i < n; i++ {
		database.Set(fmt.Sprintf("test-key-%d", i), []byte(fmt.Sprintf("test-value-%d", i)))
	}
}

func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Set(fmt.Sprintf("test-key-%d", counter), []byte("test-value"))
			counter++
		}
	})
}

func benchmarkSetExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	numKeys := 10_000
	prefill(database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Set(fmt.Sprintf("test-key-%d", counter%numKeys), []byte("new-value"))
			counter++
		}
	})
}

func benchmarkSetWithExpiry(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSetE)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.SetE(fmt.Sprintf("test-key-%d", counter), []byte("test-value"), time.Duration(1+counter%100)*time.Millisecond)
			counter++
		}
	})
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet|db.FeatureGet)

	numKeys := 10_000
	prefill(database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Get(fmt.Sprintf("test-key-%d", counter%numKeys))
			counter++
		}
	})
}

func benchmarkGetExpired(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSetE|db.FeatureGet)

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		database.SetE(fmt.Sprintf("test-key-%d", i), []byte("v"), time.Millisecond)
	}
	time.Sleep(2 * time.Millisecond)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Get(fmt.Sprintf("test-key-%d", counter%numKeys))
			counter++
		}
	})
}

func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet|db.FeatureSetE|db.FeatureGet|db.FeatureHas)

	numKeys := 10_000
	prefill(database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			switch counter % 10 {
			case 0, 1:
				database.Set(key, []byte("v"))
			case 2:
				database.SetE(key, []byte("v"), 50*time.Millisecond)
			case 3:
				database.Has(key)
			default:
				database.Get(key)
			}
			counter++
		}
	})
}
