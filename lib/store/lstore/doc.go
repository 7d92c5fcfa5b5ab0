// Package lstore implements store.IStore on top of a db.KVDB engine for string
// keys and a stream.Store for streams. Data lives in memory only.
//
// Before executing an operation the store checks whether the engine supports
// the requested feature. Unsupported operations, writes above the configured
// value size limit and calls after Close return a *store.Error.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(maple.DefaultOptions()) }
//	s := lstore.NewLocalStore(factory, nil)
//	defer s.Close()
//
//	err := s.SetE("session:123", sessionData, 5*time.Minute)
//	id, err := s.XAdd("events", stream.Spec{AutoMs: true, AutoSeq: true}, []string{"k", "v"})
package lstore
