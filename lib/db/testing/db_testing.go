package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory())
		})

		t.Run("LazyExpiryKeepsSize", func(t *testing.T) {
			testLazyExpiryKeepsSize(t, factory())
		})

		t.Run("OverwriteResetsExpiry", func(t *testing.T) {
			testOverwriteResetsExpiry(t, factory())
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			testManyExpiringKeys(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Set(testKey, testValue1)

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2)

	result, exists = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists = database.Get("nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	input := []byte("mutable")
	database.Set("mutable-key", input)
	input[0] = 'X'
	if stored, _ := database.Get("mutable-key"); !bytes.Equal(stored, []byte("mutable")) {
		t.Errorf("Set should store a copy of the value, got %s", stored)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureHas)

	if database.Has("has-key") {
		t.Errorf("Expected Has to return false before Set")
	}

	database.Set("has-key", []byte("v"))
	if !database.Has("has-key") {
		t.Errorf("Expected Has to return true after Set")
	}
}

func testKeyExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet)

	database.SetE("foo", []byte("bar"), 50*time.Millisecond)

	value, exists := database.Get("foo")
	if !exists || !bytes.Equal(value, []byte("bar")) {
		t.Fatalf("Expected foo=bar right after SetE, got %s (exists=%v)", value, exists)
	}

	time.Sleep(60 * time.Millisecond)

	if _, exists := database.Get("foo"); exists {
		t.Errorf("Expected foo to be expired after 60ms")
	}
	if database.Has("foo") {
		t.Errorf("Expected Has to return false for an expired key")
	}
}

func testLazyExpiryKeepsSize(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet)

	database.SetE("lazy", []byte("v"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	before := database.Len()
	for i := 0; i < 5; i++ {
		if _, exists := database.Get("lazy"); exists {
			t.Fatalf("Read %d returned an expired key", i)
		}
	}
	if after := database.Len(); after > before {
		t.Errorf("Reads must not grow the store, Len went from %d to %d", before, after)
	}
}

func testOverwriteResetsExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureSetE|db.FeatureGet)

	database.SetE("k", []byte("v1"), 30*time.Millisecond)
	database.Set("k", []byte("v2"))

	time.Sleep(50 * time.Millisecond)

	value, exists := database.Get("k")
	if !exists || !bytes.Equal(value, []byte("v2")) {
		t.Errorf("Overwrite without ttl must drop the old deadline, got %s (exists=%v)", value, exists)
	}

	database.SetE("k", []byte("v3"), 30*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if _, exists := database.Get("k"); exists {
		t.Errorf("Expected k to expire after being overwritten with a ttl")
	}
}

func testManyExpiringKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet|db.FeatureGarbageCollect)

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("expiring-%d", i)
		ttl := 20 * time.Millisecond
		if i%2 == 1 {
			ttl = time.Hour
		}
		database.SetE(key, []byte("v"), ttl)
	}

	// wait for the deadlines and at least one collection round
	deadline := time.Now().Add(2 * time.Second)
	for database.Len() > numKeys/2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	if database.Len() != numKeys/2 {
		t.Errorf("Expected the collector to reclaim expired keys, Len=%d", database.Len())
	}

	for i := 0; i < numKeys; i++ {
		_, exists := database.Get(fmt.Sprintf("expiring-%d", i))
		if i%2 == 0 && exists {
			t.Errorf("Key expiring-%d should be expired", i)
		}
		if i%2 == 1 && !exists {
			t.Errorf("Key expiring-%d should still exist", i)
		}
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	// empty key
	database.Set("", []byte("empty-key"))
	if value, exists := database.Get(""); !exists || string(value) != "empty-key" {
		t.Errorf("Expected empty key to be stored, got %s (exists=%v)", value, exists)
	}

	// empty value is not the same as a missing one
	database.Set("empty-value", []byte{})
	if value, exists := database.Get("empty-value"); !exists || len(value) != 0 {
		t.Errorf("Expected empty value to be stored, got %v (exists=%v)", value, exists)
	}

	// nil value
	database.Set("nil-value", nil)
	if _, exists := database.Get("nil-value"); !exists {
		t.Errorf("Expected nil value to be stored as empty value")
	}

	// binary key and value
	binaryKey := string([]byte{0, 1, '\r', '\n', 255})
	binaryValue := []byte{0, 0, '\r', '\n'}
	database.Set(binaryKey, binaryValue)
	if value, exists := database.Get(binaryKey); !exists || !bytes.Equal(value, binaryValue) {
		t.Errorf("Expected binary value round trip, got %v (exists=%v)", value, exists)
	}

	// negative ttl means no expiry
	database.SetE("negative-ttl", []byte("v"), -time.Second)
	if !database.Has("negative-ttl") {
		t.Errorf("Expected a negative ttl to store the key without expiry")
	}
}

func testManyKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	prefix := "many-keys-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		database.Set(fmt.Sprintf("%s%d", prefix, i), []byte(fmt.Sprintf("value-%d", i)))
	}

	if database.Len() != numKeys {
		t.Errorf("Expected Len %d, got %d", numKeys, database.Len())
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, exists := database.Get(key)
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s", key, expectedValue, actualValue)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		database.Set(fmt.Sprintf("%s%d", prefix, i), []byte("overwritten"))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		value, _ := database.Get(key)
		if i%2 == 0 && string(value) != "overwritten" {
			t.Errorf("Key %s should be overwritten, got %s", key, value)
		}
		if i%2 == 1 && string(value) != fmt.Sprintf("value-%d", i) {
			t.Errorf("Key %s should keep its value, got %s", key, value)
		}
	}

	info := database.GetInfo()
	if info.Keys != numKeys {
		t.Errorf("Expected GetInfo to report %d keys, got %d", numKeys, info.Keys)
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureSetE|db.FeatureGet|db.FeatureHas)

	numWorkers := 8
	opsPerWorker := 2000

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				// every fifth operation hits one of a few shared keys
				key := fmt.Sprintf("worker-%d-key-%d", workerId, i)
				if i%5 == 0 {
					key = fmt.Sprintf("hot-key-%d", i%50)
				}

				switch i % 10 {
				case 0, 1, 2, 3, 4:
					database.Set(key, []byte(key))
				case 5:
					database.SetE(key, []byte(key), time.Duration(1+i%20)*time.Millisecond)
				case 6, 7, 8:
					database.Get(key)
				case 9:
					database.Has(key)
				}
			}
		}(w)
	}
	wg.Wait()

	// every surviving private key must still hold its own name
	for w := 0; w < numWorkers; w++ {
		for i := 1; i < opsPerWorker; i++ {
			if i%5 == 0 {
				continue
			}
			key := fmt.Sprintf("worker-%d-key-%d", w, i)
			if value, exists := database.Get(key); exists && string(value) != key {
				t.Errorf("Key %s holds foreign value %s", key, value)
			}
		}
	}
}
