package replication

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/lib/resp"
	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/transport/tcp"
)

// fakeLeader accepts one connection and answers the n-th command with
// replies[n]. The received commands are recorded.
type fakeLeader struct {
	listener net.Listener
	replies  []string

	mu       sync.Mutex
	received [][]string
	done     chan struct{}
}

func startFakeLeader(t *testing.T, replies ...string) *fakeLeader {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	fl := &fakeLeader{listener: l, replies: replies, done: make(chan struct{})}
	t.Cleanup(func() {
		_ = l.Close()
		<-fl.done
	})

	go func() {
		defer close(fl.done)
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := resp.NewReader(bufio.NewReader(conn))
		for _, reply := range fl.replies {
			v, err := r.ReadValue()
			if err != nil {
				return
			}
			args, _ := v.Strings()
			fl.mu.Lock()
			fl.received = append(fl.received, args)
			fl.mu.Unlock()
			if reply == "" {
				// stay silent until the peer goes away
				_, _ = r.ReadValue()
				return
			}
			if _, err := conn.Write([]byte(reply)); err != nil {
				return
			}
		}
		// keep the link open until the client closes it
		_, _ = r.ReadValue()
	}()
	return fl
}

func (fl *fakeLeader) leader(t *testing.T) common.ReplicaOf {
	t.Helper()
	addr := fl.listener.Addr().(*net.TCPAddr)
	return common.ReplicaOf{Host: "127.0.0.1", Port: addr.Port}
}

func (fl *fakeLeader) commands() []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	out := make([]string, len(fl.received))
	for i, args := range fl.received {
		out[i] = strings.Join(args, " ")
	}
	return out
}

func handshakeConfig(leader common.ReplicaOf) HandshakeConfig {
	return HandshakeConfig{
		Leader:        leader,
		ListeningPort: 6380,
		Timeout:       time.Second,
		Transport:     tcp.NewTCPClientTransport(),
	}
}

const snapshot = "REDIS0011"

func TestHandshake(t *testing.T) {
	replID := strings.Repeat("a", 40)
	fl := startFakeLeader(t,
		"+PONG\r\n",
		"+OK\r\n",
		"+OK\r\n",
		"+FULLRESYNC "+replID+" 0\r\n$9\r\n"+snapshot+"*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n",
	)

	link, err := Handshake(context.Background(), handshakeConfig(fl.leader(t)))
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	defer link.Close()

	if link.ReplID != replID || link.Offset != 0 || string(link.Snapshot) != snapshot {
		t.Errorf("unexpected link %+v", link)
	}

	want := []string{"PING", "REPLCONF listening-port 6380", "REPLCONF capa psync2", "PSYNC ? -1"}
	got := fl.commands()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("leader received %q, want %q", got, want)
	}

	// bytes after the snapshot belong to the propagated stream
	v, err := link.Client.ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if args, _ := v.Strings(); strings.Join(args, " ") != "SET k v" {
		t.Errorf("first propagated command = %v", args)
	}
}

func TestHandshakeLowercasePong(t *testing.T) {
	fl := startFakeLeader(t, "+pong\r\n", "+ok\r\n", "+OK\r\n", "+FULLRESYNC x 7\r\n$0\r\n")
	link, err := Handshake(context.Background(), handshakeConfig(fl.leader(t)))
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	defer link.Close()
	if link.Offset != 7 || len(link.Snapshot) != 0 {
		t.Errorf("unexpected link %+v", link)
	}
}

func TestHandshakeErrors(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
		code    ErrCode
	}{
		{"ErrorReplyToPing", []string{"-ERR nope\r\n"}, ErrCUnexpectedResponse},
		{"WrongReplyToReplConf", []string{"+PONG\r\n", "+NOPE\r\n"}, ErrCUnexpectedResponse},
		{"NotFullResync", []string{"+PONG\r\n", "+OK\r\n", "+OK\r\n", "+CONTINUE\r\n"}, ErrCUnexpectedResponse},
		{"Garbage", []string{"?what\r\n"}, ErrCInvalidResponse},
		{"BadSnapshot", []string{"+PONG\r\n", "+OK\r\n", "+OK\r\n", "+FULLRESYNC x 0\r\n+oops\r\n"}, ErrCInvalidResponse},
		{"Silent", []string{""}, ErrCHandshakeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl := startFakeLeader(t, tt.replies...)
			cfg := handshakeConfig(fl.leader(t))
			cfg.Timeout = 200 * time.Millisecond
			_, err := Handshake(context.Background(), cfg)
			if !IsCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

// An unreachable leader fails with FailedToConnect and no follower is ever
// registered anywhere.
func TestHandshakeUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	_, err = Handshake(context.Background(), handshakeConfig(common.ReplicaOf{Host: "127.0.0.1", Port: port}))
	if !IsCode(err, ErrCFailedToConnect) {
		t.Fatalf("expected FailedToConnect, got %v", err)
	}
}

func TestHandshakeCancelled(t *testing.T) {
	fl := startFakeLeader(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cfg := handshakeConfig(fl.leader(t))
	cfg.Timeout = 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := Handshake(ctx, cfg)
	if !IsCode(err, ErrCHandshakeFailed) {
		t.Errorf("expected HandshakeFailed, got %v", err)
	}
}
