package replication

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
)

// Role is the replication role of a server.
type Role int

const (
	RoleLeader Role = iota
	RoleFollower
)

// String returns the role as printed by INFO.
func (r Role) String() string {
	if r == RoleFollower {
		return "slave"
	}
	return "master"
}

const (
	replIDLength   = 40
	replIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Info is the replication state of a server.
// It is not synchronized, the server guards it with its state lock.
type Info struct {
	Role       Role
	ReplID     string
	Offset     int64
	LeaderHost string
	LeaderPort int
	LinkUp     bool
}

// NewLeaderInfo returns the state of a fresh leader with a new replication id.
func NewLeaderInfo() Info {
	return Info{Role: RoleLeader, ReplID: GenerateReplID()}
}

// NewFollowerInfo returns the state of a follower of host:port that has not
// synced yet.
func NewFollowerInfo(host string, port int) Info {
	return Info{Role: RoleFollower, Offset: -1, LeaderHost: host, LeaderPort: port}
}

// GenerateReplID returns a random 40 character alphanumeric id.
func GenerateReplID() string {
	var sb strings.Builder
	sb.Grow(replIDLength)
	limit := big.NewInt(int64(len(replIDAlphabet)))
	for i := 0; i < replIDLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("replication: crypto/rand failed: " + err.Error())
		}
		sb.WriteByte(replIDAlphabet[n.Int64()])
	}
	return sb.String()
}

// String renders the INFO replication section, lines joined by CRLF.
func (i Info) String() string {
	var lines []string
	if i.Role == RoleLeader {
		lines = []string{
			"role:" + i.Role.String(),
			"master_replid:" + i.ReplID,
			"master_repl_offset:" + strconv.FormatInt(i.Offset, 10),
		}
	} else {
		status := "down"
		if i.LinkUp {
			status = "up"
		}
		lines = []string{
			"role:" + i.Role.String(),
			"master_host:" + i.LeaderHost,
			"master_port:" + strconv.Itoa(i.LeaderPort),
			"master_link_status:" + status,
		}
	}
	return strings.Join(lines, "\r\n")
}
