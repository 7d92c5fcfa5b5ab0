package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Protocol limits
const (
	// MaxArrayLen limits the number of elements of one array
	MaxArrayLen = 1024 * 1024

	// MaxBulkLen limits the size of a single bulk string or snapshot (512 MiB)
	MaxBulkLen = 512 * 1024 * 1024

	// MaxDepth limits array nesting
	MaxDepth = 32

	// maxLineLen limits simple strings, errors and length headers
	maxLineLen = 64 * 1024
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

var crlf = []byte("\r\n")

// Reader parses values from a buffered byte stream
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r. If r already is a *bufio.Reader it is used as is.
func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// Parse decodes exactly one value from b. Trailing bytes are ignored.
func Parse(b []byte) (Value, error) {
	v, err := NewReader(bytes.NewReader(b)).ReadValue()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		// a buffer that ends early is a format error, not a closed stream
		return Value{}, fmt.Errorf("%w: incomplete input", ErrProtocol)
	}
	return v, err
}

// ReadValue reads the next complete value.
// io.EOF is returned unchanged if the stream ended before the first byte,
// every other framing problem wraps ErrProtocol or ErrLimitExceeded.
func (r *Reader) ReadValue() (Value, error) {
	return r.readValue(0)
}

func (r *Reader) readValue(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, MaxDepth)
	}

	prefix, err := r.r.ReadByte()
	if err != nil {
		if depth > 0 && errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}

	switch prefix {
	case prefixSimpleString:
		line, err := r.readLine()
		if err != nil {
			return Value{}, err
		}
		return SimpleString(line), nil

	case prefixSimpleError:
		line, err := r.readLine()
		if err != nil {
			return Value{}, err
		}
		return SimpleError(line), nil

	case prefixBulkString, prefixBulkError:
		s, null, err := r.readBulk()
		if err != nil {
			return Value{}, err
		}
		if prefix == prefixBulkError {
			if null {
				return Value{}, fmt.Errorf("%w: null bulk error", ErrProtocol)
			}
			return BulkError(s), nil
		}
		if null {
			return NullBulkString(), nil
		}
		return BulkString(s), nil

	case prefixArray:
		n, err := r.readLength()
		if err != nil {
			return Value{}, err
		}
		if n == -1 {
			return Value{Kind: KindArray, Null: true}, nil
		}
		if n < 0 {
			return Value{}, fmt.Errorf("%w: invalid array length %d", ErrProtocol, n)
		}
		if n > MaxArrayLen {
			return Value{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		elems := make([]Value, 0, min(n, 64))
		for i := 0; i < n; i++ {
			elem, err := r.readValue(depth + 1)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return Value{}, io.ErrUnexpectedEOF
				}
				return Value{}, err
			}
			elems = append(elems, elem)
		}
		return Array(elems...), nil

	default:
		return Value{}, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, prefix)
	}
}

// ReadSnapshot reads a raw length prefixed payload ($<len>\r\n<bytes>) that,
// unlike a bulk string, carries no trailing CRLF.
func (r *Reader) ReadSnapshot() ([]byte, error) {
	prefix, err := r.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if prefix != prefixBulkString {
		return nil, fmt.Errorf("%w: expected snapshot, got type byte %q", ErrProtocol, prefix)
	}
	n, err := r.readLength()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid snapshot length %d", ErrProtocol, n)
	}
	if n > MaxBulkLen {
		return nil, fmt.Errorf("%w: snapshot length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Buffered returns the number of bytes that can be read without touching the
// underlying stream.
func (r *Reader) Buffered() int {
	return r.r.Buffered()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// readBulk reads the body of a bulk string after its prefix byte
func (r *Reader) readBulk() (string, bool, error) {
	n, err := r.readLength()
	if err != nil {
		return "", false, err
	}
	if n == -1 {
		return "", true, nil
	}
	if n < 0 {
		return "", false, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, n)
	}
	if n > MaxBulkLen {
		return "", false, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return "", false, io.ErrUnexpectedEOF
		}
		return "", false, err
	}
	if !bytes.HasSuffix(buf, crlf) {
		return "", false, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return string(buf[:n]), false, nil
}

// readLength reads a decimal length header terminated by CRLF
func (r *Reader) readLength() (int, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, line)
	}
	return n, nil
}

// readLine reads up to CRLF and returns the line without the terminator
func (r *Reader) readLine() (string, error) {
	var buf []byte
	for {
		frag, err := r.r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLineLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLineLen)
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}

	if len(buf) > maxLineLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLineLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, crlf) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}
