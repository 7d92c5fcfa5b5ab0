package command

import (
	"fmt"

	"github.com/ValentinKolb/redkv/lib/resp"
)

// ErrorKind classifies why a request could not be turned into a command or
// could not be executed.
type ErrorKind int

const (
	ErrKNotFound      ErrorKind = iota + 1 // unknown command name
	ErrKInvalidArgs                        // wrong number of arguments
	ErrKInvalidOption                      // unknown option or malformed option list
	ErrKCommandFailed                      // well formed but rejected, e.g. a bad integer
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKNotFound:
		return "NotFound"
	case ErrKInvalidArgs:
		return "InvalidArgs"
	case ErrKInvalidOption:
		return "InvalidOption"
	case ErrKCommandFailed:
		return "CommandFailed"
	default:
		return "Unknown"
	}
}

// Error is a client visible command error. Msg is the exact reply text.
type Error struct {
	Kind    ErrorKind
	Command string
	Msg     string
}

func (e *Error) Error() string {
	return e.Msg
}

// Reply returns the error reply sent to the client.
func (e *Error) Reply() resp.Value {
	return resp.SimpleError(e.Msg)
}

func errNotFound(name string) *Error {
	return &Error{Kind: ErrKNotFound, Command: name, Msg: fmt.Sprintf("ERR unknown command '%s'", name)}
}

func errInvalidArgs(name string) *Error {
	return &Error{Kind: ErrKInvalidArgs, Command: name, Msg: fmt.Sprintf("ERR wrong number of arguments for '%s' command", name)}
}

func errInvalidOption(name string) *Error {
	return &Error{Kind: ErrKInvalidOption, Command: name, Msg: "ERR syntax error"}
}

// Failed creates an ErrKCommandFailed error. msg is sent to the client as is.
func Failed(name, msg string) *Error {
	return &Error{Kind: ErrKCommandFailed, Command: name, Msg: msg}
}

func errNotInteger(name string) *Error {
	return Failed(name, "ERR value is not an integer or out of range")
}
