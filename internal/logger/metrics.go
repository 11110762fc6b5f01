package logger

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nightcourses"

// Metrics tracks run metrics including counters, gauges, and timings.
// All operations are thread-safe.
//
// Metric names use dots as separators ("fetch.detail.failed") and are exported to
// Prometheus as nightcourses_fetch_detail_failed_total and so on.
type Metrics struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	timings  map[string]prometheus.Histogram
}

var defaultMetrics *Metrics

func init() {
	defaultMetrics = NewMetrics()
}

// NewMetrics creates a metrics tracker with its own registry
func NewMetrics() *Metrics {
	return &Metrics{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
		timings:  make(map[string]prometheus.Histogram),
	}
}

// metricName converts a dotted metric name into a Prometheus metric name
func metricName(name string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return replacer.Replace(strings.ToLower(name))
}

// IncrCounter increments a counter by 1, creating it on first use
func (m *Metrics) IncrCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds delta to a counter, creating it on first use
func (m *Metrics) AddCounter(name string, delta float64) {
	m.mu.Lock()
	c, ok := m.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      metricName(name) + "_total",
			Help:      "Counter " + name,
		})
		m.registry.MustRegister(c)
		m.counters[name] = c
	}
	m.mu.Unlock()
	c.Add(delta)
}

// SetGauge sets a gauge to the specified value, overwriting any previous value
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	g, ok := m.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      metricName(name),
			Help:      "Gauge " + name,
		})
		m.registry.MustRegister(g)
		m.gauges[name] = g
	}
	m.mu.Unlock()
	g.Set(value)
}

// RecordTiming records a duration measurement in seconds
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	h, ok := m.timings[name]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      metricName(name) + "_seconds",
			Help:      "Timing " + name,
			Buckets:   prometheus.DefBuckets,
		})
		m.registry.MustRegister(h)
		m.timings[name] = h
	}
	m.mu.Unlock()
	h.Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// GetSnapshot returns a snapshot of all metrics as a map containing:
//   - "counters": counter names to values
//   - "gauges": gauge names to values
//   - "timings": timing names to count and total seconds
func (m *Metrics) GetSnapshot() map[string]interface{} {
	families, _ := m.registry.Gather()

	counters := make(map[string]float64)
	gauges := make(map[string]float64)
	timings := make(map[string]map[string]interface{})

	for _, mf := range families {
		name := strings.TrimPrefix(mf.GetName(), namespace+"_")
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				counters[strings.TrimSuffix(name, "_total")] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				gauges[name] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				timings[strings.TrimSuffix(name, "_seconds")] = map[string]interface{}{
					"count": h.GetSampleCount(),
					"total": time.Duration(h.GetSampleSum() * float64(time.Second)).String(),
				}
			}
		}
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

// Package-level metrics functions using the default metrics tracker

// IncrCounter increments a counter on the default metrics tracker
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// AddCounter adds delta to a counter on the default metrics tracker
func AddCounter(name string, delta float64) {
	defaultMetrics.AddCounter(name, delta)
}

// SetGauge sets a gauge on the default metrics tracker
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// DefaultMetrics returns the default metrics tracker
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
