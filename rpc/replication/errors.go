package replication

import (
	"errors"
	"fmt"
)

// ErrCode classifies replication failures.
type ErrCode int

const (
	ErrCFailedToConnect    ErrCode = iota + 1 // the leader could not be reached
	ErrCInvalidResponse                       // the leader sent bytes that are not valid RESP
	ErrCUnexpectedResponse                    // the leader answered with the wrong reply
	ErrCHandshakeFailed                       // the connection broke or timed out mid handshake
)

func (c ErrCode) String() string {
	switch c {
	case ErrCFailedToConnect:
		return "FailedToConnect"
	case ErrCInvalidResponse:
		return "InvalidResponse"
	case ErrCUnexpectedResponse:
		return "UnexpectedResponse"
	case ErrCHandshakeFailed:
		return "HandshakeFailed"
	default:
		return "Unknown"
	}
}

// Error is returned by the handshake. Step names the handshake step.
type Error struct {
	Code ErrCode
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("replication %s during %s: %v", e.Code, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a replication *Error with the given code.
func IsCode(err error, code ErrCode) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == code
}
