// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.KVDB interface.
//
// Example usage:
//
//	factory := func() db.KVDB {
//		return maple.NewMapleDB(nil)
//	}
//
//	dbtesting.RunKVDBTests(t, "MapleDB", factory)
//	dbtesting.RunKVDBBenchmarks(b, "MapleDB", factory)
package testing
