package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAndAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Logins.WithLabelValues(ResultSuccess).Inc()
	m.Logins.WithLabelValues(ResultDenied).Inc()
	m.Logins.WithLabelValues(ResultDenied).Inc()
	m.ReplaysDetected.Inc()
	m.TokensRevoked.Add(3)

	require.Equal(t, float64(1), testutil.ToFloat64(m.Logins.WithLabelValues(ResultSuccess)))
	require.Equal(t, float64(2), testutil.ToFloat64(m.Logins.WithLabelValues(ResultDenied)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ReplaysDetected))
	require.Equal(t, float64(3), testutil.ToFloat64(m.TokensRevoked))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	require.Panics(t, func() { New(reg) })
}
