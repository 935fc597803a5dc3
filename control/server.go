// control/server.go
// Author: momentics <momentics@gmail.com>
//
// Optional HTTP listener exposing the metrics registry, run as a supervised service.

package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// MetricsServer serves /metrics for one Metrics registry.
type MetricsServer struct {
	addr    string
	metrics *Metrics
}

// NewMetricsServer binds nothing until Serve is called.
func NewMetricsServer(addr string, m *Metrics) *MetricsServer {
	return &MetricsServer{addr: addr, metrics: m}
}

// Handler returns the /metrics mux.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens until ctx is cancelled. It implements suture.Service.
func (s *MetricsServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", s.addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *MetricsServer) String() string { return "metrics-server" }
