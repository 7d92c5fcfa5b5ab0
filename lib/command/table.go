package command

import (
	"sort"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Schema
// --------------------------------------------------------------------------

// Spec describes how the arguments of one command are laid out.
//
// The first Positional arguments are taken as they are (-1 means all of
// them). Every argument after that must be the name of an entry in Options,
// the map value tells whether the option consumes the following argument.
type Spec struct {
	Name       string
	MinArgs    int
	MaxArgs    int // 0 = unlimited
	Positional int
	Options    map[string]bool
	Write      bool // the command mutates the keyspace and is propagated

	build func(Args) (Command, error)
}

// Option is one parsed option. Value is empty for options without a value.
type Option struct {
	Name  string
	Value string
}

// Args is a request split according to a Spec.
type Args struct {
	Name       string // lower case command name
	Positional []string
	Options    []Option
	Bulk       bool // the request arrived as bulk strings
}

// Option returns the value of the last occurrence of the named option.
func (a Args) Option(name string) (string, bool) {
	for i := len(a.Options) - 1; i >= 0; i-- {
		if a.Options[i].Name == name {
			return a.Options[i].Value, true
		}
	}
	return "", false
}

// Has reports whether the named option was given.
func (a Args) Has(name string) bool {
	_, ok := a.Option(name)
	return ok
}

// --------------------------------------------------------------------------
// Table
// --------------------------------------------------------------------------

// Table maps command names to their Spec. A Table is immutable once built
// and safe for concurrent use.
type Table struct {
	specs map[string]*Spec
}

func newTable(specs ...Spec) *Table {
	t := &Table{specs: make(map[string]*Spec, len(specs))}
	for i := range specs {
		s := specs[i]
		t.specs[strings.ToLower(s.Name)] = &s
	}
	return t
}

var defaultTable = sync.OnceValue(func() *Table {
	return newTable(
		Spec{Name: "ping", MaxArgs: 1, Positional: -1, build: buildPing},
		Spec{Name: "echo", MinArgs: 1, MaxArgs: 1, Positional: -1, build: buildEcho},
		Spec{Name: "get", MinArgs: 1, MaxArgs: 1, Positional: -1, build: buildGet},
		Spec{Name: "set", MinArgs: 2, Positional: 2, Options: map[string]bool{"px": true, "ex": true}, Write: true, build: buildSet},
		Spec{Name: "info", MinArgs: 1, Options: map[string]bool{"replication": false, "stats": false, "keyspace": false}, build: buildInfo},
		Spec{Name: "replconf", MinArgs: 1, Options: map[string]bool{"listening-port": true, "capa": true}, build: buildReplConf},
		Spec{Name: "psync", MinArgs: 2, MaxArgs: 2, Positional: -1, build: buildPSync},
		Spec{Name: "type", MinArgs: 1, MaxArgs: 1, Positional: -1, build: buildType},
		Spec{Name: "xadd", MinArgs: 2, Positional: -1, Write: true, build: buildXAdd},
		Spec{Name: "xrange", MinArgs: 3, Positional: 3, Options: map[string]bool{"count": true}, build: buildXRange},
	)
})

// DefaultTable returns the table of all commands redkv supports. It is
// built on first use and shared afterwards.
func DefaultTable() *Table {
	return defaultTable()
}

// Lookup returns the spec of a command, the name is matched case-insensitively.
func (t *Table) Lookup(name string) (*Spec, bool) {
	s, ok := t.specs[strings.ToLower(name)]
	return s, ok
}

// Names returns the sorted names of all commands.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.specs))
	for name := range t.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// split validates args against the spec and separates positional arguments
// from options.
func (s *Spec) split(args []string, bulk bool) (Args, error) {
	if len(args) < s.MinArgs || (s.MaxArgs > 0 && len(args) > s.MaxArgs) {
		return Args{}, errInvalidArgs(s.Name)
	}

	n := s.Positional
	if n < 0 || n > len(args) {
		n = len(args)
	}
	parsed := Args{Name: s.Name, Positional: args[:n], Bulk: bulk}

	for i := n; i < len(args); i++ {
		name := strings.ToLower(args[i])
		takesValue, ok := s.Options[name]
		if !ok {
			return Args{}, errInvalidOption(s.Name)
		}
		opt := Option{Name: name}
		if takesValue {
			if i+1 >= len(args) {
				return Args{}, errInvalidArgs(s.Name)
			}
			i++
			opt.Value = args[i]
		}
		parsed.Options = append(parsed.Options, opt)
	}
	return parsed, nil
}
