package resp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"simple string", "+PONG\r\n", SimpleString("PONG")},
		{"simple error", "-ERR boom\r\n", SimpleError("ERR boom")},
		{"bulk string", "$5\r\nhello\r\n", BulkString("hello")},
		{"bulk keeps case", "$5\r\nHeLLo\r\n", BulkString("HeLLo")},
		{"binary safe bulk", "$4\r\na\r\nb\r\n", BulkString("a\r\nb")},
		{"empty bulk", "$0\r\n\r\n", BulkString("")},
		{"null bulk", "$-1\r\n", NullBulkString()},
		{"bulk error", "!3\r\nbad\r\n", BulkError("bad")},
		{"empty array", "*0\r\n", Array()},
		{"null array", "*-1\r\n", Value{Kind: KindArray, Null: true}},
		{"command", "*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\n", BulkStrings("ECHO", "hi")},
		{"nested", "*2\r\n*1\r\n+a\r\n$1\r\nb\r\n", Array(Array(SimpleString("a")), BulkString("b"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unknown prefix", "?oops\r\n"},
		{"missing terminator", "+PONG"},
		{"bad bulk length", "$x\r\nabc\r\n"},
		{"short bulk", "$5\r\nabc\r\n"},
		{"bulk without crlf", "$3\r\nabcde"},
		{"negative bulk", "$-2\r\n"},
		{"bad array length", "*z\r\n"},
		{"short array", "*2\r\n$1\r\na\r\n"},
		{"bare newline", "+PONG\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("Parse(%q) error = %v, want ErrProtocol", tt.input, err)
			}
		})
	}
}

func TestParseLimits(t *testing.T) {
	input := strings.Repeat("*1\r\n", MaxDepth+2) + "+x\r\n"
	if _, err := Parse([]byte(input)); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("expected ErrLimitExceeded for deep nesting, got %v", err)
	}
	if _, err := Parse([]byte("*99999999\r\n")); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("expected ErrLimitExceeded for huge array, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		BulkString("bar"),
		BulkString(""),
		NullBulkString(),
		BulkStrings("SET", "foo", "bar", "px", "50"),
		Array(BulkString("1-1"), BulkStrings("field", "value")),
		Array(Array(Array(BulkString("deep")))),
	}

	for _, v := range values {
		got, err := Parse(v.Marshal())
		if err != nil {
			t.Fatalf("Parse(Marshal(%v)) error: %v", v, err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip mismatch: got %#v, want %#v", got, v)
		}
	}
}

func TestEncoding(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"simple", SimpleString("OK"), "+OK\r\n"},
		{"error", SimpleError("ERR x"), "-ERR x\r\n"},
		{"bulk", BulkString("bar"), "$3\r\nbar\r\n"},
		{"null", NullBulkString(), "$-1\r\n"},
		{"array", BulkStrings("a", "bc"), "*2\r\n$1\r\na\r\n$2\r\nbc\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.v.Marshal()); got != tt.want {
				t.Errorf("Marshal() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := string(AppendCommand(nil, "PING")); got != "*1\r\n$4\r\nPING\r\n" {
		t.Errorf("AppendCommand() = %q", got)
	}
}

func TestReaderStream(t *testing.T) {
	input := "+FULLRESYNC abc 0\r\n$3\r\nRDB*1\r\n$4\r\nPING\r\n"
	r := NewReader(strings.NewReader(input))

	v, err := r.ReadValue()
	if err != nil || !v.EqualFold("fullresync abc 0") {
		t.Fatalf("unexpected first value %v (err %v)", v, err)
	}

	snapshot, err := r.ReadSnapshot()
	if err != nil {
		t.Fatalf("ReadSnapshot error: %v", err)
	}
	if string(snapshot) != "RDB" {
		t.Errorf("Expected snapshot RDB, got %q", snapshot)
	}

	v, err = r.ReadValue()
	if err != nil {
		t.Fatalf("ReadValue after snapshot error: %v", err)
	}
	if args, ok := v.Strings(); !ok || len(args) != 1 || args[0] != "PING" {
		t.Errorf("Expected [PING], got %v", v)
	}

	if _, err := r.ReadValue(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF at end of stream, got %v", err)
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	_ = w.WriteSimpleString("OK")
	_ = w.WriteNullBulk()
	_ = w.WriteCommand("SET", "k", "v")
	_ = w.WriteSnapshot([]byte{0x52, 0x45})

	if buf.Len() != 0 {
		t.Fatalf("Writer must buffer until Flush, got %d bytes", buf.Len())
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	want := "+OK\r\n$-1\r\n*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n$2\r\nRE"
	if got := buf.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestReaderReusesBufio(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("+a\r\n"))
	r := NewReader(br)
	if r.r != br {
		t.Errorf("NewReader should reuse an existing *bufio.Reader")
	}
}

func TestValueString(t *testing.T) {
	v := Array(BulkString("1-1"), BulkStrings("f", "v"))
	want := "1) \"1-1\"\n2) \n   1) \"f\"\n   2) \"v\""
	if got := v.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if NullBulkString().String() != "(nil)" {
		t.Errorf("null bulk should render as (nil)")
	}
}
