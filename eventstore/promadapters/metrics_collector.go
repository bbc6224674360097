// Package promadapters provides a Prometheus implementation of eventstore.MetricsCollector.
package promadapters

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andresramilo/challenge-eventstore/eventstore"
)

// MetricsCollector implements eventstore.MetricsCollector with client_golang vectors:
//   - RecordDuration -> HistogramVec observed in seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
//
// A vector is created and registered on the first call for a metric name. Its label names are the label keys
// of that first call, later calls with other keys are dropped. It is safe for concurrent use.
type MetricsCollector struct {
	registerer prometheus.Registerer
	buckets    []float64
	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithBuckets sets the histogram buckets in seconds. The default is prometheus.ExponentialBuckets(1e-6, 4, 12),
// from one microsecond to a few seconds.
func WithBuckets(buckets []float64) Option {
	return func(m *MetricsCollector) {
		m.buckets = buckets
	}
}

// NewMetricsCollector creates a collector that registers its vectors with the registerer.
func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) *MetricsCollector {
	m := &MetricsCollector{
		registerer: registerer,
		buckets:    prometheus.ExponentialBuckets(1e-6, 4, 12),
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// RecordDuration observes the duration in seconds.
func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.histograms[metric]
	if !ok {
		vec = register(m.registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metric,
			Help:    help(metric, "EventStore operation duration in seconds."),
			Buckets: m.buckets,
		}, labelNames(labels)))
		m.histograms[metric] = vec
	}
	m.mu.Unlock()

	if observer, err := vec.GetMetricWith(labels); err == nil {
		observer.Observe(duration.Seconds())
	}
}

// IncrementCounter adds one to the counter.
func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.counters[metric]
	if !ok {
		vec = register(m.registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metric,
			Help: help(metric, "EventStore operation counter."),
		}, labelNames(labels)))
		m.counters[metric] = vec
	}
	m.mu.Unlock()

	if counter, err := vec.GetMetricWith(labels); err == nil {
		counter.Inc()
	}
}

// RecordValue sets the gauge.
func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	vec, ok := m.gauges[metric]
	if !ok {
		vec = register(m.registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metric,
			Help: help(metric, "EventStore current value."),
		}, labelNames(labels)))
		m.gauges[metric] = vec
	}
	m.mu.Unlock()

	if gauge, err := vec.GetMetricWith(labels); err == nil {
		gauge.Set(value)
	}
}

// register registers the collector, or returns the one already registered under the same descriptor.
// Registration conflicts leave the collector unregistered, it then still works but is never exported.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(C); ok {
			return existing
		}
	}

	return collector
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func help(metric, fallback string) string {
	switch {
	case strings.HasSuffix(metric, "_iterator_misuse_total"):
		return "EventStore iterator calls in an invalid state."
	case strings.HasSuffix(metric, "_errors_total"):
		return "EventStore failed operations."
	default:
		return fallback
	}
}

// Ensure MetricsCollector implements eventstore.MetricsCollector.
var _ eventstore.MetricsCollector = (*MetricsCollector)(nil)
