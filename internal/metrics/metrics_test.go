package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_HitsAndMisses(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	require.NotNil(t, m)

	m.Hit("memory")
	m.Hit("memory")
	m.Miss("memory")
	m.Miss("disk")

	require.Equal(t, float64(2), testutil.ToFloat64(m.Hits.WithLabelValues("memory")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Misses.WithLabelValues("memory")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Misses.WithLabelValues("disk")))
}

func TestMetrics_EvictionsByReason(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Evict("disk", ReasonCapacity)
	m.Evict("disk", ReasonStorage)
	m.Evict("disk", ReasonStorage)

	require.Equal(t, float64(1), testutil.ToFloat64(m.Evictions.WithLabelValues("disk", ReasonCapacity)))
	require.Equal(t, float64(2), testutil.ToFloat64(m.Evictions.WithLabelValues("disk", ReasonStorage)))
}

func TestMetrics_UsageGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Usage("memory", 14)
	m.Usage("memory", 15)

	require.Equal(t, float64(15), testutil.ToFloat64(m.UsedBytes.WithLabelValues("memory")))
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Reject("memory")
	m.Computed("files", ResultSuccess)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["tiny_cache_rejections_total"])
	require.True(t, names["tiny_cache_computations_total"])
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.Hit("x")
	r.Usage("x", 1)
}
