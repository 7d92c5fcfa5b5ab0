package command

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/ValentinKolb/redkv/lib/stream"
)

func errKind(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name string
		req  resp.Value
		want Command
	}{
		{"PingInline", resp.SimpleString("PING"), Ping{}},
		{"PingArray", resp.BulkStrings("ping"), Ping{}},
		{"PingMessage", resp.BulkStrings("PING", "hi"), Ping{Message: "hi", HasMessage: true}},
		{"EchoBulk", resp.BulkStrings("ECHO", "hello"), Echo{Message: "hello", Bulk: true}},
		{"EchoInline", resp.SimpleString("ECHO hello"), Echo{Message: "hello"}},
		{"EchoKeepsCase", resp.BulkStrings("echo", "HeLLo"), Echo{Message: "HeLLo", Bulk: true}},
		{"Get", resp.BulkStrings("GET", "Foo"), Get{Key: "Foo"}},
		{"Set", resp.BulkStrings("SET", "foo", "bar"), Set{Key: "foo", Value: "bar"}},
		{"SetPx", resp.BulkStrings("SET", "foo", "bar", "PX", "50"), Set{Key: "foo", Value: "bar", TTL: 50 * time.Millisecond}},
		{"SetEx", resp.BulkStrings("SET", "foo", "bar", "ex", "2"), Set{Key: "foo", Value: "bar", TTL: 2 * time.Second}},
		{"SetValueLooksLikeOption", resp.BulkStrings("SET", "px", "px"), Set{Key: "px", Value: "px"}},
		{"Info", resp.BulkStrings("INFO", "replication"), Info{Sections: []string{"replication"}}},
		{"InfoSections", resp.BulkStrings("info", "Stats", "keyspace"), Info{Sections: []string{"stats", "keyspace"}}},
		{"ReplConfPort", resp.BulkStrings("REPLCONF", "listening-port", "6380"), ReplConf{ListeningPort: 6380}},
		{"ReplConfCapa", resp.BulkStrings("REPLCONF", "capa", "eof", "capa", "psync2"), ReplConf{Capabilities: []string{"eof", "psync2"}}},
		{"PSync", resp.BulkStrings("PSYNC", "?", "-1"), PSync{ReplID: "?", Offset: -1}},
		{"Type", resp.BulkStrings("TYPE", "k"), Type{Key: "k"}},
		{"XAdd", resp.BulkStrings("XADD", "s", "1-1", "f", "v"), XAdd{Key: "s", ID: stream.Spec{Ms: 1, Seq: 1}, Fields: []string{"f", "v"}}},
		{"XAddWildcard", resp.BulkStrings("XADD", "s", "*", "a", "1", "b", "2"), XAdd{Key: "s", ID: stream.Spec{AutoMs: true, AutoSeq: true}, Fields: []string{"a", "1", "b", "2"}}},
		{"XRange", resp.BulkStrings("XRANGE", "s", "-", "+"), XRange{Key: "s", Start: stream.MinID, End: stream.MaxID}},
		{"XRangeCount", resp.BulkStrings("XRANGE", "s", "1", "2-5", "COUNT", "10"), XRange{Key: "s", Start: stream.ID{Ms: 1}, End: stream.ID{Ms: 2, Seq: 5}, Count: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   resp.Value
		kind  ErrorKind
		reply string
	}{
		{"Unknown", resp.BulkStrings("FLUSHALL"), ErrKNotFound, "ERR unknown command 'FLUSHALL'"},
		{"GetNoKey", resp.BulkStrings("GET"), ErrKInvalidArgs, "ERR wrong number of arguments for 'get' command"},
		{"GetTooMany", resp.BulkStrings("GET", "a", "b"), ErrKInvalidArgs, "ERR wrong number of arguments for 'get' command"},
		{"SetMissingValue", resp.BulkStrings("SET", "foo"), ErrKInvalidArgs, "ERR wrong number of arguments for 'set' command"},
		{"SetUnknownOption", resp.BulkStrings("SET", "foo", "bar", "nx"), ErrKInvalidOption, "ERR syntax error"},
		{"SetPxWithoutValue", resp.BulkStrings("SET", "foo", "bar", "px"), ErrKInvalidArgs, "ERR wrong number of arguments for 'set' command"},
		{"SetPxNotInteger", resp.BulkStrings("SET", "foo", "bar", "px", "soon"), ErrKCommandFailed, "ERR value is not an integer or out of range"},
		{"SetPxZero", resp.BulkStrings("SET", "foo", "bar", "px", "0"), ErrKCommandFailed, "ERR invalid expire time in 'set' command"},
		{"SetPxAndEx", resp.BulkStrings("SET", "foo", "bar", "px", "1", "ex", "1"), ErrKInvalidOption, "ERR syntax error"},
		{"InfoNoSection", resp.BulkStrings("INFO"), ErrKInvalidArgs, "ERR wrong number of arguments for 'info' command"},
		{"InfoUnknownSection", resp.BulkStrings("INFO", "cpu"), ErrKInvalidOption, "ERR syntax error"},
		{"ReplConfBadPort", resp.BulkStrings("REPLCONF", "listening-port", "x"), ErrKCommandFailed, "ERR value is not an integer or out of range"},
		{"PSyncOneArg", resp.BulkStrings("PSYNC", "?"), ErrKInvalidArgs, "ERR wrong number of arguments for 'psync' command"},
		{"XAddNoFields", resp.BulkStrings("XADD", "s", "1-1"), ErrKInvalidArgs, "ERR wrong number of arguments for 'xadd' command"},
		{"XAddOddFields", resp.BulkStrings("XADD", "s", "1-1", "f"), ErrKInvalidArgs, "ERR wrong number of arguments for 'xadd' command"},
		{"XAddBadID", resp.BulkStrings("XADD", "s", "abc", "f", "v"), ErrKCommandFailed, "ERR Invalid stream ID specified as stream command argument"},
		{"XRangeBadCount", resp.BulkStrings("XRANGE", "s", "-", "+", "COUNT", "x"), ErrKCommandFailed, "ERR value is not an integer or out of range"},
		{"EmptyArray", resp.Array(), ErrKCommandFailed, "ERR Protocol error: expected a command"},
		{"NestedArray", resp.Array(resp.BulkString("GET"), resp.Array()), ErrKCommandFailed, "ERR Protocol error: expected a command"},
		{"Error", resp.SimpleError("ERR"), ErrKCommandFailed, "ERR Protocol error: expected a command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.req)
			if errKind(err) != tt.kind {
				t.Fatalf("expected kind %s, got %v", tt.kind, err)
			}
			var ce *Error
			errors.As(err, &ce)
			if reply := ce.Reply(); reply.Kind != resp.KindSimpleError || reply.Str != tt.reply {
				t.Errorf("reply = %q, want %q", reply.Str, tt.reply)
			}
		})
	}
}

func TestReplicaArgs(t *testing.T) {
	t.Run("SetWithoutTTL", func(t *testing.T) {
		got := Set{Key: "k", Value: "v"}.ReplicaArgs()
		if !reflect.DeepEqual(got, []string{"SET", "k", "v"}) {
			t.Errorf("got %v", got)
		}
	})
	t.Run("SetWithTTL", func(t *testing.T) {
		got := Set{Key: "k", Value: "v", TTL: 2 * time.Second}.ReplicaArgs()
		if !reflect.DeepEqual(got, []string{"SET", "k", "v", "px", "2000"}) {
			t.Errorf("got %v", got)
		}
	})
	t.Run("XAddUsesAssignedID", func(t *testing.T) {
		cmd := XAdd{Key: "s", ID: stream.Spec{AutoMs: true, AutoSeq: true}, Fields: []string{"f", "v"}}
		got := cmd.ReplicaArgs(stream.ID{Ms: 10, Seq: 2})
		if !reflect.DeepEqual(got, []string{"XADD", "s", "10-2", "f", "v"}) {
			t.Errorf("got %v", got)
		}
	})
	t.Run("RoundTrip", func(t *testing.T) {
		orig := Set{Key: "k", Value: "v", TTL: 1500 * time.Millisecond}
		got, err := Parse(resp.BulkStrings(orig.ReplicaArgs()...))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, orig) {
			t.Errorf("got %#v, want %#v", got, orig)
		}
	})
}

func TestTable(t *testing.T) {
	table := DefaultTable()
	if table != DefaultTable() {
		t.Error("DefaultTable must return the same table")
	}
	want := []string{"echo", "get", "info", "ping", "psync", "replconf", "set", "type", "xadd", "xrange"}
	if got := table.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v", got)
	}
	if !table.IsWrite(Set{}) || !table.IsWrite(XAdd{}) || table.IsWrite(Get{}) {
		t.Error("unexpected write classification")
	}
	if _, ok := table.Lookup("XaDd"); !ok {
		t.Error("lookup must be case-insensitive")
	}
}
