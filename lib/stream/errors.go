package stream

import "errors"

// ErrCode classifies a stream error.
type ErrCode int

const (
	// ErrCStreamIDZero is returned for the explicit ID 0-0.
	ErrCStreamIDZero ErrCode = iota + 1
	// ErrCInvalidStreamID is returned when an ID does not grow the stream or cannot be parsed.
	ErrCInvalidStreamID
)

func (c ErrCode) String() string {
	switch c {
	case ErrCStreamIDZero:
		return "StreamIDZero"
	case ErrCInvalidStreamID:
		return "InvalidStreamID"
	default:
		return "Unknown"
	}
}

// Error is returned by all stream operations. Msg is the client visible text.
type Error struct {
	Code ErrCode
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

const (
	msgIDZero     = "ERR The ID specified in XADD must be greater than 0-0"
	msgNotGreater = "ERR The ID specified in XADD is equal or smaller than the target stream top item"
	msgMalformed  = "ERR Invalid stream ID specified as stream command argument"
)

var (
	errIDZero     = &Error{Code: ErrCStreamIDZero, Msg: msgIDZero}
	errNotGreater = &Error{Code: ErrCInvalidStreamID, Msg: msgNotGreater}
	errMalformed  = &Error{Code: ErrCInvalidStreamID, Msg: msgMalformed}
)

// IsCode reports whether err is a stream *Error with the given code.
func IsCode(err error, code ErrCode) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}
