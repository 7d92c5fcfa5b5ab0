package resp

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a Value
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindSimpleError
	KindBulkString
	KindBulkError
	KindArray
)

// Wire prefixes for each kind
const (
	prefixSimpleString = '+'
	prefixSimpleError  = '-'
	prefixBulkString   = '$'
	prefixBulkError    = '!'
	prefixArray        = '*'
)

func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "SimpleString"
	case KindSimpleError:
		return "SimpleError"
	case KindBulkString:
		return "BulkString"
	case KindBulkError:
		return "BulkError"
	case KindArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// Value is one node of the value tree. Str carries the text of the string and
// error kinds, Elems the children of an array. Null marks the null bulk string
// ($-1) and the null array (*-1).
type Value struct {
	Kind  Kind
	Str   string
	Elems []Value
	Null  bool
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

func SimpleString(s string) Value { return Value{Kind: KindSimpleString, Str: s} }

func SimpleError(s string) Value { return Value{Kind: KindSimpleError, Str: s} }

func BulkString(s string) Value { return Value{Kind: KindBulkString, Str: s} }

func BulkError(s string) Value { return Value{Kind: KindBulkError, Str: s} }

// NullBulkString returns the null bulk string, encoded as $-1
func NullBulkString() Value { return Value{Kind: KindBulkString, Null: true} }

func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, Elems: elems}
}

// BulkStrings builds an array of bulk strings, the form clients use to send
// commands.
func BulkStrings(items ...string) Value {
	elems := make([]Value, len(items))
	for i, item := range items {
		elems[i] = BulkString(item)
	}
	return Array(elems...)
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// IsString reports whether v is a non null simple or bulk string
func (v Value) IsString() bool {
	return (v.Kind == KindSimpleString || v.Kind == KindBulkString) && !v.Null
}

// IsError reports whether v is a simple or bulk error
func (v Value) IsError() bool {
	return v.Kind == KindSimpleError || v.Kind == KindBulkError
}

// EqualFold reports whether v is a string or error whose text matches s
// without regard to case.
func (v Value) EqualFold(s string) bool {
	if v.Kind == KindArray || v.Null {
		return false
	}
	return strings.EqualFold(v.Str, s)
}

// Strings returns the texts of an array of strings. The second return value
// is false if v is not an array or contains a non string element.
func (v Value) Strings() ([]string, bool) {
	if v.Kind != KindArray || v.Null {
		return nil, false
	}
	out := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		if !e.IsString() {
			return nil, false
		}
		out[i] = e.Str
	}
	return out, true
}

// String returns a human readable rendering, used by the CLI and in logs
func (v Value) String() string {
	switch v.Kind {
	case KindSimpleString:
		return v.Str
	case KindSimpleError, KindBulkError:
		return "(error) " + v.Str
	case KindBulkString:
		if v.Null {
			return "(nil)"
		}
		return strconv.Quote(v.Str)
	case KindArray:
		if v.Null {
			return "(nil)"
		}
		if len(v.Elems) == 0 {
			return "(empty array)"
		}
		var sb strings.Builder
		v.render(&sb, "")
		return strings.TrimSuffix(sb.String(), "\n")
	default:
		return "(unknown)"
	}
}

// render writes an indented, numbered listing of array elements
func (v Value) render(sb *strings.Builder, indent string) {
	for i, e := range v.Elems {
		sb.WriteString(indent)
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(") ")
		if e.Kind == KindArray && !e.Null && len(e.Elems) > 0 {
			sb.WriteString("\n")
			e.render(sb, indent+"   ")
			continue
		}
		sb.WriteString(e.String())
		sb.WriteString("\n")
	}
}
