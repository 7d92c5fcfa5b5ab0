package common

import (
	"strings"
	"testing"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

func TestParseReplicaOf(t *testing.T) {
	tests := []struct {
		in      string
		want    ReplicaOf
		wantErr bool
	}{
		{in: "", want: ReplicaOf{}},
		{in: "localhost 6379", want: ReplicaOf{Host: "localhost", Port: 6379}},
		{in: "  10.0.0.1   6380 ", want: ReplicaOf{Host: "10.0.0.1", Port: 6380}},
		{in: "localhost:6379", want: ReplicaOf{Host: "localhost", Port: 6379}},
		{in: "[::1]:7000", want: ReplicaOf{Host: "::1", Port: 7000}},
		{in: "localhost", wantErr: true},
		{in: "localhost abc", wantErr: true},
		{in: "localhost 70000", wantErr: true},
		{in: ":6379", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReplicaOf(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func validConfig() ServerConfig {
	return ServerConfig{
		Port:             6379,
		BindHost:         "127.0.0.1",
		Transport:        TransportTCP,
		HandshakeTimeout: time.Second,
		Shards:           4,
		GCInterval:       100 * time.Millisecond,
		LogLevel:         "info",
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *ServerConfig)
		wantErr bool
	}{
		{"Valid", func(c *ServerConfig) {}, false},
		{"BadPort", func(c *ServerConfig) { c.Port = 0 }, true},
		{"UnknownTransport", func(c *ServerConfig) { c.Transport = "udp" }, true},
		{"UnixWithoutPath", func(c *ServerConfig) { c.Transport = TransportUnix }, true},
		{"Unix", func(c *ServerConfig) { c.Transport = TransportUnix; c.SocketPath = "/tmp/redkv.sock" }, false},
		{"FollowerOnUnix", func(c *ServerConfig) {
			c.Transport = TransportUnix
			c.SocketPath = "/tmp/redkv.sock"
			c.ReplicaOf = ReplicaOf{Host: "localhost", Port: 6379}
		}, true},
		{"BadLogLevel", func(c *ServerConfig) { c.LogLevel = "verbose" }, true},
		{"NegativeRetries", func(c *ServerConfig) { c.HandshakeRetries = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigString(t *testing.T) {
	cfg := validConfig()
	cfg.ReplicaOf = ReplicaOf{Host: "leader", Port: 6379}
	out := cfg.String()
	for _, want := range []string{"LISTENER", "127.0.0.1:6379", "follower", "leader:6379", "unlimited", "disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() misses %q:\n%s", want, out)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := InitLoggers("loud"); err == nil {
		t.Error("InitLoggers must reject unknown levels")
	}
}
