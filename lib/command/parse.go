package command

import (
	"strings"

	"github.com/ValentinKolb/redkv/lib/resp"
)

// Parse turns a request value into a command using the table.
//
// A request is either an array of strings (name and arguments) or a single
// simple or bulk string holding an inline command like "PING" or "ECHO hi".
// Parsing has no side effects.
func (t *Table) Parse(v resp.Value) (Command, error) {
	words, bulk, ok := requestWords(v)
	if !ok || len(words) == 0 {
		return nil, Failed("", "ERR Protocol error: expected a command")
	}

	spec, found := t.Lookup(words[0])
	if !found {
		return nil, errNotFound(words[0])
	}

	args, err := spec.split(words[1:], bulk)
	if err != nil {
		return nil, err
	}
	return spec.build(args)
}

// Parse parses v with the default table.
func Parse(v resp.Value) (Command, error) {
	return DefaultTable().Parse(v)
}

// IsWrite reports whether cmd mutates the keyspace.
func (t *Table) IsWrite(cmd Command) bool {
	spec, ok := t.Lookup(cmd.Name())
	return ok && spec.Write
}

func requestWords(v resp.Value) ([]string, bool, bool) {
	switch {
	case v.Kind == resp.KindArray:
		words, ok := v.Strings()
		if !ok {
			return nil, false, false
		}
		bulk := len(v.Elems) > 1
		for _, e := range v.Elems[1:] {
			if e.Kind != resp.KindBulkString {
				bulk = false
			}
		}
		return words, bulk, true
	case v.IsString():
		return strings.Fields(v.Str), v.Kind == resp.KindBulkString, true
	default:
		return nil, false, false
	}
}
