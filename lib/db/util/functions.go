package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// GenerateSeed returns a random seed for the hash function of one database
// instance. It falls back to the current time if no randomness is available.
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// HashString hashes s with FNV-1a, mixing in seed
func HashString(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}
	return hash
}

// ShardIndex maps a hash onto one of n shards.
// The low bits are shifted out since the map inside a shard buckets on them.
func ShardIndex(hash uint64, n int) int {
	if n <= 1 {
		return 0
	}
	return int((hash >> 7) % uint64(n))
}
