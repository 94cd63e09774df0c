package metrics_test

import (
	"testing"

	"github.com/jrsteele09/hotel-session/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("counts by label", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		m.Refresh(metrics.OutcomeSuccess)
		m.Refresh(metrics.OutcomeSuccess)
		m.Gate(metrics.DecisionFast)

		require.Equal(t, 2.0, testutil.ToFloat64(m.RefreshExchanges.WithLabelValues(metrics.OutcomeSuccess)))
		require.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisions.WithLabelValues(metrics.DecisionFast)))

		n, err := testutil.GatherAndCount(reg, "hotelsession_refresh_exchanges_total")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("nil is a no-op", func(t *testing.T) {
		var m *metrics.Metrics
		require.NotPanics(t, func() {
			m.Refresh(metrics.OutcomeFailed)
			m.Gate(metrics.DecisionExpired)
		})
	})
}
