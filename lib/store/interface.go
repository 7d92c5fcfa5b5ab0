package store

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/redkv/lib/db"
	"github.com/ValentinKolb/redkv/lib/stream"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// KeyType is the answer of the TYPE command.
type KeyType string

const (
	KeyTypeNone   KeyType = "none"
	KeyTypeString KeyType = "string"
	KeyTypeStream KeyType = "stream"
)

// IStore is the keyspace of a redkv server: string keys with optional expiry
// and append-only streams.
// Faults of the store itself are reported as *Error. Stream validation
// failures are reported as *stream.Error and are meant for the client.
type IStore interface {
	// Set inserts or overwrites a string key without expiry.
	Set(key string, value []byte) (err error)
	// SetE inserts or overwrites a string key that expires ttl after the call.
	// A ttl <= 0 means no expiry.
	SetE(key string, value []byte, ttl time.Duration) (err error)
	// Get returns the value of a string key. Expired keys are reported as not loaded.
	Get(key string) (value []byte, loaded bool, err error)
	// Has reports whether a live string key exists.
	Has(key string) (loaded bool, err error)
	// Type returns which kind of value key holds.
	Type(key string) (t KeyType, err error)
	// XAdd appends fields to the stream under key and returns the assigned id.
	XAdd(key string, spec stream.Spec, fields []string) (id stream.ID, err error)
	// XRange returns the stream entries of key between start and end (inclusive).
	// An unknown key yields an empty result.
	XRange(key string, start, end stream.ID, count int) (entries []stream.Entry, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
	// StreamCount returns the number of stream keys.
	StreamCount() int
	// Close releases the store. Every call after Close fails with RetCClosed.
	Close() error
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new StoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCReadFailed                          // 1: A read could not be served.
	RetCWriteFailed                         // 2: A write could not be applied.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCReadFailed:
		return "ReadFailed"
	case RetCWriteFailed:
		return "WriteFailed"
	default:
		return "Unknown"
	}
}
