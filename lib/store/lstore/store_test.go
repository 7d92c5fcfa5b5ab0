package lstore

import (
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/lib/db"
	"github.com/ValentinKolb/redkv/lib/db/engines/maple"
	"github.com/ValentinKolb/redkv/lib/store"
	"github.com/ValentinKolb/redkv/lib/stream"
)

func newTestStore(t *testing.T, opts *Options) store.IStore {
	t.Helper()
	s := NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) }, opts)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func storeCode(err error) store.RetCode {
	var se *store.Error
	if errors.As(err, &se) {
		return se.Code
	}
	return store.RetCSuccess
}

func TestLocalStore(t *testing.T) {
	t.Run("SetGet", func(t *testing.T) {
		s := newTestStore(t, nil)
		if err := s.Set("foo", []byte("bar")); err != nil {
			t.Fatal(err)
		}
		val, ok, err := s.Get("foo")
		if err != nil || !ok || string(val) != "bar" {
			t.Errorf("Get = %q, %v, %v", val, ok, err)
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		s := newTestStore(t, nil)
		if err := s.SetE("foo", []byte("bar"), 50*time.Millisecond); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := s.Get("foo"); !ok {
			t.Fatal("key should be visible before its deadline")
		}
		time.Sleep(60 * time.Millisecond)
		if _, ok, _ := s.Get("foo"); ok {
			t.Error("key should be gone after its deadline")
		}
		if typ, _ := s.Type("foo"); typ != store.KeyTypeNone {
			t.Errorf("Type = %s, want none", typ)
		}
	})

	t.Run("Type", func(t *testing.T) {
		s := newTestStore(t, nil)
		_ = s.Set("str", []byte("v"))
		if _, err := s.XAdd("events", stream.Spec{Ms: 1, Seq: 1}, []string{"f", "v"}); err != nil {
			t.Fatal(err)
		}
		tests := map[string]store.KeyType{
			"str":     store.KeyTypeString,
			"events":  store.KeyTypeStream,
			"missing": store.KeyTypeNone,
		}
		for key, want := range tests {
			if got, err := s.Type(key); err != nil || got != want {
				t.Errorf("Type(%s) = %s, %v; want %s", key, got, err, want)
			}
		}
	})

	t.Run("XAddErrorsPassThrough", func(t *testing.T) {
		s := newTestStore(t, nil)
		_, err := s.XAdd("events", stream.Spec{}, []string{"f", "v"})
		if !stream.IsCode(err, stream.ErrCStreamIDZero) {
			t.Errorf("expected StreamIDZero, got %v", err)
		}
		_, err = s.XAdd("events", stream.Spec{Ms: 1}, []string{"f"})
		if storeCode(err) != store.RetCWriteFailed {
			t.Errorf("expected WriteFailed for odd field count, got %v", err)
		}
	})

	t.Run("XRange", func(t *testing.T) {
		s := newTestStore(t, nil)
		for i := uint64(1); i <= 3; i++ {
			if _, err := s.XAdd("events", stream.Spec{Ms: i, Seq: 0}, []string{"n", "x"}); err != nil {
				t.Fatal(err)
			}
		}
		entries, err := s.XRange("events", stream.ID{Ms: 2}, stream.MaxID, 0)
		if err != nil || len(entries) != 2 {
			t.Fatalf("XRange = %v, %v", entries, err)
		}
		entries, err = s.XRange("missing", stream.MinID, stream.MaxID, 0)
		if err != nil || entries == nil || len(entries) != 0 {
			t.Errorf("expected empty result for missing key, got %v, %v", entries, err)
		}
		if s.StreamCount() != 1 {
			t.Errorf("StreamCount = %d, want 1", s.StreamCount())
		}
	})

	t.Run("MaxValueSize", func(t *testing.T) {
		s := newTestStore(t, &Options{MaxValueSize: 4})
		if err := s.Set("ok", []byte("1234")); err != nil {
			t.Fatal(err)
		}
		err := s.SetE("big", []byte("12345"), time.Second)
		if storeCode(err) != store.RetCWriteFailed {
			t.Errorf("expected WriteFailed, got %v", err)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		s := newTestStore(t, nil)
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		writes := map[string]error{
			"Set":  s.Set("k", []byte("v")),
			"SetE": s.SetE("k", []byte("v"), time.Second),
		}
		_, err := s.XAdd("s", stream.Spec{AutoMs: true, AutoSeq: true}, []string{"f", "v"})
		writes["XAdd"] = err
		for name, err := range writes {
			if storeCode(err) != store.RetCWriteFailed {
				t.Errorf("%s after Close: %v, want WriteFailed", name, err)
			}
		}

		_, _, getErr := s.Get("k")
		_, hasErr := s.Has("k")
		_, typeErr := s.Type("k")
		_, rangeErr := s.XRange("s", stream.ID{}, stream.ID{Ms: 1}, 0)
		_, infoErr := s.GetDBInfo()
		reads := map[string]error{"Get": getErr, "Has": hasErr, "Type": typeErr, "XRange": rangeErr, "GetDBInfo": infoErr}
		for name, err := range reads {
			if storeCode(err) != store.RetCReadFailed {
				t.Errorf("%s after Close: %v, want ReadFailed", name, err)
			}
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close: %v", err)
		}
	})

	t.Run("DBInfo", func(t *testing.T) {
		s := newTestStore(t, nil)
		_ = s.Set("a", []byte("1"))
		_ = s.SetE("b", []byte("2"), time.Minute)
		info, err := s.GetDBInfo()
		if err != nil {
			t.Fatal(err)
		}
		if info.Keys != 2 || info.Expires != 1 || info.DbType != db.ImplMaple {
			t.Errorf("unexpected info %+v", info)
		}
	})
}
