// Package server provides the network listeners and the metrics endpoint of
// the auth server.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feedline/auth-server/internal/model"
)

// MetricsServer exposes a Prometheus registry over HTTP with address and
// lifecycle methods.
type MetricsServer struct {
	server *http.Server
	addr   string
}

// NewMetricsServer creates a MetricsServer serving the given registry on addr.
func NewMetricsServer(registry *prometheus.Registry, addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &MetricsServer{
		server: &http.Server{Handler: mux},
		addr:   addr,
	}
}

// Start starts serving on the configured address using the provided security layer.
func (s *MetricsServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server.
func (s *MetricsServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *MetricsServer) Address() string {
	return s.addr
}
