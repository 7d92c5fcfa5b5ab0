package http

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestMetricsServer(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	s := NewMetricsServer("127.0.0.1:0",
		func(w io.Writer) { _, _ = io.WriteString(w, "redkv_commands_total 3\n") },
		func() error {
			if !healthy.Load() {
				return errors.New("leader link down")
			}
			return nil
		},
	)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	get := func(path string) (int, string) {
		t.Helper()
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		return res.StatusCode, string(body)
	}

	t.Run("Metrics", func(t *testing.T) {
		code, body := get("/metrics")
		if code != http.StatusOK || !strings.Contains(body, "redkv_commands_total 3") {
			t.Errorf("got %d %q", code, body)
		}
	})

	t.Run("Healthy", func(t *testing.T) {
		code, body := get("/health")
		if code != http.StatusOK || body != "ok\n" {
			t.Errorf("got %d %q", code, body)
		}
	})

	t.Run("Unhealthy", func(t *testing.T) {
		healthy.Store(false)
		defer healthy.Store(true)
		code, body := get("/health")
		if code != http.StatusServiceUnavailable || !strings.Contains(body, "leader link down") {
			t.Errorf("got %d %q", code, body)
		}
	})

	t.Run("UnknownPath", func(t *testing.T) {
		if code, _ := get("/nope"); code != http.StatusNotFound {
			t.Errorf("got %d", code)
		}
	})
}
