package common

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Shared types
// --------------------------------------------------------------------------

type TransportType string

const (
	TransportTCP  TransportType = "tcp"
	TransportUnix TransportType = "unix"
)

// ReplicaOf is the address of the leader a server follows. The zero value
// means the server is a leader.
type ReplicaOf struct {
	Host string
	Port int
}

// Enabled reports whether a leader address is set.
func (r ReplicaOf) Enabled() bool {
	return r.Host != ""
}

// Address returns the leader address as host:port.
func (r ReplicaOf) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func (r ReplicaOf) String() string {
	if !r.Enabled() {
		return "none"
	}
	return fmt.Sprintf("%s %d", r.Host, r.Port)
}

// ParseReplicaOf parses a leader address given either as "<host> <port>"
// or as "<host>:<port>". An empty string yields the zero ReplicaOf.
func ParseReplicaOf(s string) (ReplicaOf, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ReplicaOf{}, nil
	}

	var host, port string
	if fields := strings.Fields(s); len(fields) == 2 {
		host, port = fields[0], fields[1]
	} else if h, p, err := net.SplitHostPort(s); err == nil {
		host, port = h, p
	} else {
		return ReplicaOf{}, fmt.Errorf("invalid leader address %q: expected \"<host> <port>\" or \"<host>:<port>\"", s)
	}

	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return ReplicaOf{}, fmt.Errorf("invalid leader port %q", port)
	}
	if host == "" {
		return ReplicaOf{}, errors.New("leader host must not be empty")
	}
	return ReplicaOf{Host: host, Port: p}, nil
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a redkv server.
type ServerConfig struct {
	// Listener
	Port       int
	BindHost   string
	Transport  TransportType
	SocketPath string

	// Replication
	ReplicaOf        ReplicaOf
	HandshakeRetries int
	HandshakeTimeout time.Duration

	// Connections
	TimeoutSecond int64

	// Storage engine
	Shards       int
	GCInterval   time.Duration
	MaxValueSize int

	// Observability
	MetricsEndpoint string
	LogLevel        string
}

// Address returns the address the server listens on for the configured transport.
func (c *ServerConfig) Address() string {
	if c.Transport == TransportUnix {
		return c.SocketPath
	}
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.Port))
}

// Validate checks the configuration for values the server cannot work with.
func (c *ServerConfig) Validate() error {
	switch c.Transport {
	case TransportTCP:
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port %d", c.Port)
		}
	case TransportUnix:
		if c.SocketPath == "" {
			return errors.New("unix transport needs a socket path")
		}
	default:
		return fmt.Errorf("unknown transport %q: must be one of tcp, unix", c.Transport)
	}
	if c.ReplicaOf.Enabled() && c.Transport != TransportTCP {
		return errors.New("a follower must listen on tcp, the leader needs its port")
	}
	if c.HandshakeRetries < 0 {
		return fmt.Errorf("invalid handshake retries %d", c.HandshakeRetries)
	}
	if c.TimeoutSecond < 0 {
		return fmt.Errorf("invalid timeout %d", c.TimeoutSecond)
	}
	if c.MaxValueSize < 0 {
		return fmt.Errorf("invalid max value size %d", c.MaxValueSize)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Listener")
	addField("Transport", string(c.Transport))
	addField("Address", c.Address())
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Replication")
	if c.ReplicaOf.Enabled() {
		addField("Role", "follower")
		addField("Leader", c.ReplicaOf.Address())
		addField("Handshake Retries", strconv.Itoa(c.HandshakeRetries))
		addField("Handshake Timeout", c.HandshakeTimeout.String())
	} else {
		addField("Role", "leader")
	}

	addSection("Storage")
	addField("Shards", strconv.Itoa(c.Shards))
	addField("GC Interval", c.GCInterval.String())
	if c.MaxValueSize > 0 {
		addField("Max Value Size", fmt.Sprintf("%d bytes", c.MaxValueSize))
	} else {
		addField("Max Value Size", "unlimited")
	}

	addSection("Observability")
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoint      string
	Transport     TransportType
	TimeoutSecond int
	RetryCount    int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Transport", string(c.Transport))
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))

	return sb.String()
}
