package resp

import (
	"bufio"
	"io"
	"strconv"
)

// AppendTo appends the wire encoding of v to dst
func (v Value) AppendTo(dst []byte) []byte {
	switch v.Kind {
	case KindSimpleString:
		return appendLine(dst, prefixSimpleString, v.Str)
	case KindSimpleError:
		return appendLine(dst, prefixSimpleError, v.Str)
	case KindBulkString:
		if v.Null {
			return append(dst, "$-1\r\n"...)
		}
		return appendBulk(dst, prefixBulkString, v.Str)
	case KindBulkError:
		return appendBulk(dst, prefixBulkError, v.Str)
	case KindArray:
		if v.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = appendLine(dst, prefixArray, strconv.Itoa(len(v.Elems)))
		for _, e := range v.Elems {
			dst = e.AppendTo(dst)
		}
		return dst
	default:
		return dst
	}
}

// Marshal returns the wire encoding of v
func (v Value) Marshal() []byte {
	return v.AppendTo(nil)
}

// AppendCommand appends args as an array of bulk strings, the request form
// of a command.
func AppendCommand(dst []byte, args ...string) []byte {
	dst = appendLine(dst, prefixArray, strconv.Itoa(len(args)))
	for _, arg := range args {
		dst = appendBulk(dst, prefixBulkString, arg)
	}
	return dst
}

// AppendSnapshot appends a raw payload as $<len>\r\n<bytes>, without the
// trailing CRLF a bulk string would carry.
func AppendSnapshot(dst []byte, payload []byte) []byte {
	dst = appendLine(dst, prefixBulkString, strconv.Itoa(len(payload)))
	return append(dst, payload...)
}

func appendLine(dst []byte, prefix byte, s string) []byte {
	dst = append(dst, prefix)
	dst = append(dst, s...)
	return append(dst, crlf...)
}

func appendBulk(dst []byte, prefix byte, s string) []byte {
	dst = appendLine(dst, prefix, strconv.Itoa(len(s)))
	dst = append(dst, s...)
	return append(dst, crlf...)
}

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// Writer buffers encoded values until Flush is called.
//
// Thread-safety: A Writer is not safe for concurrent use. Connections that are
// written from more than one goroutine must guard it with their own mutex.
type Writer struct {
	w       *bufio.Writer
	scratch []byte
}

// NewWriter wraps w. If w already is a *bufio.Writer it is used as is.
func NewWriter(w io.Writer) *Writer {
	if bw, ok := w.(*bufio.Writer); ok {
		return &Writer{w: bw}
	}
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteValue buffers the encoding of v
func (w *Writer) WriteValue(v Value) error {
	w.scratch = v.AppendTo(w.scratch[:0])
	_, err := w.w.Write(w.scratch)
	return err
}

func (w *Writer) WriteSimpleString(s string) error {
	return w.WriteValue(SimpleString(s))
}

func (w *Writer) WriteError(s string) error {
	return w.WriteValue(SimpleError(s))
}

func (w *Writer) WriteBulkString(s string) error {
	return w.WriteValue(BulkString(s))
}

func (w *Writer) WriteNullBulk() error {
	_, err := w.w.WriteString("$-1\r\n")
	return err
}

// WriteCommand buffers args as an array of bulk strings
func (w *Writer) WriteCommand(args ...string) error {
	w.scratch = AppendCommand(w.scratch[:0], args...)
	_, err := w.w.Write(w.scratch)
	return err
}

// WriteSnapshot buffers a raw length prefixed payload (see AppendSnapshot)
func (w *Writer) WriteSnapshot(payload []byte) error {
	if _, err := w.w.WriteString("$" + strconv.Itoa(len(payload)) + "\r\n"); err != nil {
		return err
	}
	_, err := w.w.Write(payload)
	return err
}

// WriteRaw buffers already encoded bytes
func (w *Writer) WriteRaw(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// Flush writes all buffered data to the underlying writer
func (w *Writer) Flush() error {
	return w.w.Flush()
}
