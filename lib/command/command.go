package command

import (
	"strconv"
	"time"

	"github.com/ValentinKolb/redkv/lib/stream"
)

// Command is a parsed request. The set of implementations is closed, the
// server matches on the concrete type.
type Command interface {
	// Name returns the lower case command name.
	Name() string
	isCommand()
}

// --------------------------------------------------------------------------
// Connection and server commands
// --------------------------------------------------------------------------

// Ping replies PONG, or the message if one was given.
type Ping struct {
	Message    string
	HasMessage bool
}

// Echo replies its message. Bulk tells whether the message arrived as a
// bulk string so the reply can mirror the encoding.
type Echo struct {
	Message string
	Bulk    bool
}

// Info reports the requested sections.
type Info struct {
	Sections []string
}

// ReplConf is sent by a follower during the handshake.
type ReplConf struct {
	ListeningPort int // 0 if not given
	Capabilities  []string
}

// PSync asks the leader for a resynchronization. Only "?" with offset -1 is
// answered with a full resync.
type PSync struct {
	ReplID string
	Offset int64
}

// --------------------------------------------------------------------------
// Keyspace commands
// --------------------------------------------------------------------------

type Get struct {
	Key string
}

// Set writes a string key. TTL is zero when no expiry was requested.
type Set struct {
	Key   string
	Value string
	TTL   time.Duration
}

type Type struct {
	Key string
}

// XAdd appends an entry to a stream. Fields holds flattened field/value pairs.
type XAdd struct {
	Key    string
	ID     stream.Spec
	Fields []string
}

// XRange reads the entries of a stream between Start and End (inclusive).
// Count <= 0 means no limit.
type XRange struct {
	Key   string
	Start stream.ID
	End   stream.ID
	Count int
}

func (Ping) Name() string     { return "ping" }
func (Echo) Name() string     { return "echo" }
func (Info) Name() string     { return "info" }
func (ReplConf) Name() string { return "replconf" }
func (PSync) Name() string    { return "psync" }
func (Get) Name() string      { return "get" }
func (Set) Name() string      { return "set" }
func (Type) Name() string     { return "type" }
func (XAdd) Name() string     { return "xadd" }
func (XRange) Name() string   { return "xrange" }

func (Ping) isCommand()     {}
func (Echo) isCommand()     {}
func (Info) isCommand()     {}
func (ReplConf) isCommand() {}
func (PSync) isCommand()    {}
func (Get) isCommand()      {}
func (Set) isCommand()      {}
func (Type) isCommand()     {}
func (XAdd) isCommand()     {}
func (XRange) isCommand()   {}

// --------------------------------------------------------------------------
// Replica encoding
// --------------------------------------------------------------------------

// ReplicaArgs returns the command as it is sent to followers. An expiry is
// carried as px in milliseconds.
func (c Set) ReplicaArgs() []string {
	if c.TTL <= 0 {
		return []string{"SET", c.Key, c.Value}
	}
	return []string{"SET", c.Key, c.Value, "px", strconv.FormatInt(c.TTL.Milliseconds(), 10)}
}

// ReplicaArgs returns the command as it is sent to followers. The id is the
// one the leader assigned so followers store identical ids.
func (c XAdd) ReplicaArgs(id stream.ID) []string {
	args := make([]string, 0, 3+len(c.Fields))
	args = append(args, "XADD", c.Key, id.String())
	return append(args, c.Fields...)
}

// --------------------------------------------------------------------------
// Builders
// --------------------------------------------------------------------------

func buildPing(a Args) (Command, error) {
	if len(a.Positional) == 1 {
		return Ping{Message: a.Positional[0], HasMessage: true}, nil
	}
	return Ping{}, nil
}

func buildEcho(a Args) (Command, error) {
	return Echo{Message: a.Positional[0], Bulk: a.Bulk}, nil
}

func buildGet(a Args) (Command, error) {
	return Get{Key: a.Positional[0]}, nil
}

func buildSet(a Args) (Command, error) {
	cmd := Set{Key: a.Positional[0], Value: a.Positional[1]}
	if a.Has("px") && a.Has("ex") {
		return nil, errInvalidOption(a.Name)
	}

	unit, raw := time.Millisecond, ""
	if v, ok := a.Option("px"); ok {
		raw = v
	} else if v, ok := a.Option("ex"); ok {
		unit, raw = time.Second, v
	}
	if raw == "" {
		return cmd, nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errNotInteger(a.Name)
	}
	if n <= 0 || n > int64(maxTTL/unit) {
		return nil, Failed(a.Name, "ERR invalid expire time in 'set' command")
	}
	cmd.TTL = time.Duration(n) * unit
	return cmd, nil
}

const maxTTL = time.Duration(1<<63 - 1)

func buildInfo(a Args) (Command, error) {
	sections := make([]string, 0, len(a.Options))
	for _, opt := range a.Options {
		sections = append(sections, opt.Name)
	}
	return Info{Sections: sections}, nil
}

func buildReplConf(a Args) (Command, error) {
	var cmd ReplConf
	for _, opt := range a.Options {
		switch opt.Name {
		case "listening-port":
			port, err := strconv.Atoi(opt.Value)
			if err != nil || port <= 0 || port > 65535 {
				return nil, errNotInteger(a.Name)
			}
			cmd.ListeningPort = port
		case "capa":
			cmd.Capabilities = append(cmd.Capabilities, opt.Value)
		}
	}
	return cmd, nil
}

func buildPSync(a Args) (Command, error) {
	offset, err := strconv.ParseInt(a.Positional[1], 10, 64)
	if err != nil {
		return nil, errNotInteger(a.Name)
	}
	return PSync{ReplID: a.Positional[0], Offset: offset}, nil
}

func buildType(a Args) (Command, error) {
	return Type{Key: a.Positional[0]}, nil
}

func buildXAdd(a Args) (Command, error) {
	rest := a.Positional[2:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return nil, errInvalidArgs(a.Name)
	}
	spec, err := stream.ParseSpec(a.Positional[1])
	if err != nil {
		return nil, Failed(a.Name, err.Error())
	}
	return XAdd{Key: a.Positional[0], ID: spec, Fields: append([]string(nil), rest...)}, nil
}

func buildXRange(a Args) (Command, error) {
	start, err := stream.ParseRangeBound(a.Positional[1], false)
	if err != nil {
		return nil, Failed(a.Name, err.Error())
	}
	end, err := stream.ParseRangeBound(a.Positional[2], true)
	if err != nil {
		return nil, Failed(a.Name, err.Error())
	}
	cmd := XRange{Key: a.Positional[0], Start: start, End: end}
	if v, ok := a.Option("count"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errNotInteger(a.Name)
		}
		cmd.Count = n
	}
	return cmd, nil
}
