package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Eviction reasons attached to the evictions counter.
const (
	ReasonCapacity = "capacity"
	ReasonExpired  = "expired"
	ReasonStorage  = "storage"
	ReasonFailure  = "failure"
)

// Computation results attached to the computations counter.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder 接收缓存内部事件，缓存包只依赖该接口。
type Recorder interface {
	Hit(cache string)
	Miss(cache string)
	Evict(cache, reason string)
	Reject(cache string)
	Usage(cache string, bytes int64)
	Computed(cache, result string)
}

// Nop 丢弃所有事件，是缓存未注入 Recorder 时的默认值。
type Nop struct{}

func (Nop) Hit(string) {}
func (Nop) Miss(string) {}
func (Nop) Evict(string, string) {}
func (Nop) Reject(string) {}
func (Nop) Usage(string, int64) {}
func (Nop) Computed(string, string) {}

// Metrics holds all Prometheus metrics for the cache subsystem.
type Metrics struct {
	Hits         *prometheus.CounterVec
	Misses       *prometheus.CounterVec
	Evictions    *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
	UsedBytes    *prometheus.GaugeVec
	Computations *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_cache_hits_total",
		Help: "Total cache lookups served from the cache",
	}, []string{"cache"})

	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_cache_misses_total",
		Help: "Total cache lookups that found no usable entry",
	}, []string{"cache"})

	evictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_cache_evictions_total",
		Help: "Total entries removed by the cache itself",
	}, []string{"cache", "reason"})

	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_cache_rejections_total",
		Help: "Total puts rejected for lack of capacity",
	}, []string{"cache"})

	usedBytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tiny_cache_used_bytes",
		Help: "Bytes currently accounted to a bounded cache",
	}, []string{"cache"})

	computations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_cache_computations_total",
		Help: "Total single-flight computations by outcome",
	}, []string{"cache", "result"})

	reg.MustRegister(hits, misses, evictions, rejections, usedBytes, computations)

	return &Metrics{
		Hits:         hits,
		Misses:       misses,
		Evictions:    evictions,
		Rejections:   rejections,
		UsedBytes:    usedBytes,
		Computations: computations,
	}
}

func (m *Metrics) Hit(cache string) {
	m.Hits.WithLabelValues(cache).Inc()
}

func (m *Metrics) Miss(cache string) {
	m.Misses.WithLabelValues(cache).Inc()
}

func (m *Metrics) Evict(cache, reason string) {
	m.Evictions.WithLabelValues(cache, reason).Inc()
}

func (m *Metrics) Reject(cache string) {
	m.Rejections.WithLabelValues(cache).Inc()
}

func (m *Metrics) Usage(cache string, bytes int64) {
	m.UsedBytes.WithLabelValues(cache).Set(float64(bytes))
}

func (m *Metrics) Computed(cache, result string) {
	m.Computations.WithLabelValues(cache, result).Inc()
}
