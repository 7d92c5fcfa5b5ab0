package lstore

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/redkv/lib/db"
	"github.com/ValentinKolb/redkv/lib/store"
	"github.com/ValentinKolb/redkv/lib/stream"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

// Options configures the local store.
type Options struct {
	MaxValueSize int              // Largest accepted string value in bytes (0 = unlimited)
	Clock        func() time.Time // Time source for stream ids (nil = time.Now)
}

type storeImpl struct {
	db           db.KVDB
	streams      *stream.Store
	maxValueSize int
	closed       atomic.Bool
}

// NewLocalStore creates a new local store instance using the db created by factory.
// opts may be nil.
func NewLocalStore(factory store.DBFactory, opts *Options) store.IStore {
	if opts == nil {
		opts = &Options{}
	}
	return &storeImpl{
		db:           factory(),
		streams:      stream.NewStore(opts.Clock),
		maxValueSize: opts.MaxValueSize,
	}
}

// checkWrite reports faults of a write as RetCWriteFailed.
func (s *storeImpl) checkWrite(feature db.Feature, value []byte) error {
	if s.closed.Load() {
		return store.NewError(store.RetCWriteFailed, "store is closed")
	}
	if !s.db.SupportsFeature(feature) {
		return store.NewError(store.RetCWriteFailed, fmt.Sprintf("%s operation is not supported", feature))
	}
	if s.maxValueSize > 0 && len(value) > s.maxValueSize {
		Logger.Warningf("rejected value of %d bytes (limit %d)", len(value), s.maxValueSize)
		return store.NewError(store.RetCWriteFailed, fmt.Sprintf("value of %d bytes exceeds the limit of %d bytes", len(value), s.maxValueSize))
	}
	return nil
}

// checkRead reports faults of a read as RetCReadFailed.
func (s *storeImpl) checkRead(feature db.Feature) error {
	if s.closed.Load() {
		return store.NewError(store.RetCReadFailed, "store is closed")
	}
	if !s.db.SupportsFeature(feature) {
		return store.NewError(store.RetCReadFailed, fmt.Sprintf("%s operation is not supported", feature))
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if err := s.checkWrite(db.FeatureSet, value); err != nil {
		return err
	}
	s.db.Set(key, value)
	return nil
}

func (s *storeImpl) SetE(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Set(key, value)
	}
	if err := s.checkWrite(db.FeatureSetE, value); err != nil {
		return err
	}
	s.db.SetE(key, value, ttl)
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if err := s.checkRead(db.FeatureGet); err != nil {
		return nil, false, err
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if err := s.checkRead(db.FeatureHas); err != nil {
		return false, err
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) Type(key string) (store.KeyType, error) {
	ok, err := s.Has(key)
	if err != nil {
		return store.KeyTypeNone, err
	}
	switch {
	case ok:
		return store.KeyTypeString, nil
	case s.streams.Exists(key):
		return store.KeyTypeStream, nil
	default:
		return store.KeyTypeNone, nil
	}
}

func (s *storeImpl) XAdd(key string, spec stream.Spec, fields []string) (stream.ID, error) {
	if s.closed.Load() {
		return stream.ID{}, store.NewError(store.RetCWriteFailed, "store is closed")
	}
	if len(fields) == 0 || len(fields)%2 != 0 {
		return stream.ID{}, store.NewError(store.RetCWriteFailed, "stream entries need field/value pairs")
	}
	return s.streams.Append(key, spec, fields)
}

func (s *storeImpl) XRange(key string, start, end stream.ID, count int) ([]stream.Entry, error) {
	if s.closed.Load() {
		return nil, store.NewError(store.RetCReadFailed, "store is closed")
	}
	entries, ok := s.streams.Range(key, start, end, count)
	if !ok {
		return []stream.Entry{}, nil
	}
	return entries, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	if s.closed.Load() {
		return db.DatabaseInfo{}, store.NewError(store.RetCReadFailed, "store is closed")
	}
	return s.db.GetInfo(), nil
}

func (s *storeImpl) StreamCount() int {
	return s.streams.Len()
}

func (s *storeImpl) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	Logger.Infof("closing store (%d streams)", s.streams.Len())
	return s.db.Close()
}
