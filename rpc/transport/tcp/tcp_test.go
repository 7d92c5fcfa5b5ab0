package tcp

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/rpc/common"
)

// echoHandler writes every received line back until the peer closes.
func echoHandler(ctx context.Context, conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		if _, err := conn.Write([]byte(line)); err != nil {
			return
		}
	}
}

func startServer(t *testing.T) (string, func()) {
	t.Helper()
	srv := NewTCPServerTransport()
	srv.RegisterHandler(echoHandler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Listen(ctx, common.ServerConfig{Transport: common.TransportTCP, BindHost: "127.0.0.1", Port: 0})
	}()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("Listen failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not become ready")
	}

	stop := func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Listen returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Listen did not return after cancel")
		}
	}
	return srv.Addr().String(), stop
}

func TestTCPTransport(t *testing.T) {
	addr, stop := startServer(t)
	defer stop()

	client := NewTCPClientTransport()
	conn, err := client.Dial(context.Background(), common.ClientConfig{Endpoint: addr, TimeoutSecond: 1, RetryCount: 3})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || line != "hello\n" {
		t.Errorf("got %q, %v", line, err)
	}
}

func TestShutdownClosesConnections(t *testing.T) {
	addr, stop := startServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// make sure the handler runs before shutting down
	_, _ = conn.Write([]byte("ping\n"))
	r := bufio.NewReader(conn)
	if _, err := r.ReadString('\n'); err != nil {
		t.Fatal(err)
	}

	stop()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := r.ReadString('\n'); err == nil {
		t.Error("expected the server to close the connection")
	}
}

func TestDialUnreachable(t *testing.T) {
	// reserve a port and release it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	client := NewTCPClientTransport()
	start := time.Now()
	_, err = client.Dial(context.Background(), common.ClientConfig{Endpoint: addr, TimeoutSecond: 1, RetryCount: 2})
	if err == nil {
		t.Fatal("expected dial error")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Errorf("expected a backoff between the attempts")
	}
}
