package client

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// ReplyError is an error reply of the server.
type ReplyError struct {
	Msg string
}

func (e *ReplyError) Error() string {
	return e.Msg
}

// UnexpectedReplyError is returned when a reply has a kind the command
// never answers with.
type UnexpectedReplyError struct {
	Command string
	Reply   resp.Value
}

func (e *UnexpectedReplyError) Error() string {
	return fmt.Sprintf("unexpected reply to %s: %s %q", e.Command, e.Reply.Kind, e.Reply.Str)
}

// invoke is used by all typed commands: it sends the command and turns an
// error reply into a *ReplyError.
func (c *Client) invoke(args ...string) (resp.Value, error) {
	v, err := c.Do(args...)
	if err != nil {
		return resp.Value{}, err
	}
	if v.IsError() {
		return v, &ReplyError{Msg: v.Str}
	}
	return v, nil
}

// expectString checks that v is a non null string reply.
func expectString(cmd string, v resp.Value) (string, error) {
	if !v.IsString() {
		return "", &UnexpectedReplyError{Command: strings.ToUpper(cmd), Reply: v}
	}
	return v.Str, nil
}
