package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedline/auth-server/internal/metrics"
)

func TestMetricsServer_ServesRegistry(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	m.ReplaysDetected.Inc()

	srv := NewMetricsServer(registry, addr)
	assert.Equal(t, addr, srv.Address())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(NewPlainListener())
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get(fmt.Sprintf("http://%s/metrics", addr))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "auth_token_replays_detected_total")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, <-errCh)
}

func TestMetricsServer_StartFailsOnBadAddress(t *testing.T) {
	srv := NewMetricsServer(prometheus.NewRegistry(), "invalid-address")

	err := srv.Start(NewPlainListener())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
