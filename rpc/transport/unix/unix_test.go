package unix

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/rpc/common"
)

func TestUnixTransport(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "redkv.sock")

	srv := NewUnixServerTransport()
	srv.RegisterHandler(func(ctx context.Context, conn net.Conn) {
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err == nil {
			_, _ = conn.Write([]byte("re: " + line))
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Listen(ctx, common.ServerConfig{Transport: common.TransportUnix, SocketPath: socket})
	}()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("Listen failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not become ready")
	}

	conn, err := NewUnixClientTransport().Dial(context.Background(), common.ClientConfig{Endpoint: socket, RetryCount: 1})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	_, _ = conn.Write([]byte("hi\n"))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || line != "re: hi\n" {
		t.Errorf("got %q, %v", line, err)
	}
}
