package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("metrics")

const shutdownTimeout = 2 * time.Second

// MetricsServer serves the Prometheus metrics and a health probe over HTTP.
type MetricsServer struct {
	endpoint string
	writer   func(w io.Writer)
	health   func() error
	server   *http.Server
}

// NewMetricsServer creates a server for endpoint (host:port). writeMetrics
// writes the Prometheus text exposition, health reports whether the node can
// serve requests. health may be nil.
func NewMetricsServer(endpoint string, writeMetrics func(w io.Writer), health func() error) *MetricsServer {
	s := &MetricsServer{
		endpoint: endpoint,
		writer:   writeMetrics,
		health:   health,
	}
	s.server = &http.Server{
		Addr:              endpoint,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler with the /metrics and /health routes.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", loggerMiddleware(s.handleMetrics))
	mux.HandleFunc("GET /health", loggerMiddleware(s.handleHealth))
	return mux
}

// Listen serves until ctx is cancelled.
func (s *MetricsServer) Listen(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.endpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.endpoint, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	Logger.Infof("Starting metrics server on %s", listener.Addr())
	if err := s.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (s *MetricsServer) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.writer(w)
}

func (s *MetricsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.health != nil {
		if err := s.health(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = io.WriteString(w, "ok\n")
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware is a middleware that logs HTTP requests
func loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create custom response writer to capture status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	}
}
