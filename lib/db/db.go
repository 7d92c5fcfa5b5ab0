package db

import "time"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet            Feature = 1 << iota // Support for Set operations
	FeatureSetE                               // Support for SetE operations (values with a time to live)
	FeatureGet                                // Support for Get operations
	FeatureHas                                // Support for Has operations
	FeatureGarbageCollect                     // Expired entries are reclaimed in the background
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureSetE:
		return "SetE"
	case FeatureGet:
		return "Get"
	case FeatureHas:
		return "Has"
	case FeatureGarbageCollect:
		return "GarbageCollect"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	Keys              int            `json:"keys"`
	Expires           int            `json:"expires"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for in-memory key-value database implementations.
// Expiry is expressed in wall-clock time: an entry written with a ttl is
// logically absent once its deadline has passed, whether or not it has been
// physically removed yet.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or overwrites an entry without expiry.
	// A previous ttl of the key is discarded.
	Set(key string, value []byte)

	// SetE inserts or overwrites an entry that expires ttl after the call.
	// A ttl <= 0 is equivalent to Set.
	SetE(key string, value []byte, ttl time.Duration)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves a copy of the value for key.
	// The boolean is false if the key is absent or its deadline has passed.
	Get(key string) (value []byte, loaded bool)

	// Has reports whether a live (not expired) entry exists for key.
	Has(key string) (loaded bool)

	// Len returns the number of physically stored entries. Entries that are
	// expired but not yet collected are included, lookups never change it.
	Len() int

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close stops background work of the database.
	Close() (err error)
}
