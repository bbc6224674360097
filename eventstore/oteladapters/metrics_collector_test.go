package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/andresramilo/challenge-eventstore/eventstore/oteladapters"
)

func givenMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics), "failed to collect metrics")

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "metric %q was not collected", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()
	labels := map[string]string{"operation": "query", "status": "success"}

	// act
	collector.RecordDuration("eventstore_query_duration_seconds", 150*time.Millisecond, labels)

	// assert
	m := findMetric(t, collect(t, reader), "eventstore_query_duration_seconds")
	assert.Equal(t, "s", m.Unit)
	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "duration should be recorded as a float64 histogram")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expectedAttrs := attribute.NewSet(
		attribute.String("operation", "query"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()
	labels := map[string]string{"operation": "insert", "event_type": "A"}

	// act
	collector.IncrementCounter("eventstore_events_inserted_total", labels)
	collector.IncrementCounterContext(context.Background(), "eventstore_events_inserted_total", labels)
	collector.IncrementCounter("eventstore_events_inserted_total", labels)

	// assert
	m := findMetric(t, collect(t, reader), "eventstore_events_inserted_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "counter should be recorded as an int64 sum")
	require.Len(t, sum.DataPoints, 1)
	assert.True(t, sum.IsMonotonic)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_KeepsLastValue(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()
	labels := map[string]string{"operation": "remove_all", "event_type": "C"}

	// act
	collector.RecordValue("eventstore_events_stored", 30, labels)
	collector.RecordValue("eventstore_events_stored", 20, labels)

	// assert
	m := findMetric(t, collect(t, reader), "eventstore_events_stored")
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "value should be recorded as a float64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, float64(20), gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_SeparatesDataPointsByLabels(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()

	// act
	collector.IncrementCounter("eventstore_iterator_misuse_total", map[string]string{"operation": "iterator_current"})
	collector.IncrementCounter("eventstore_iterator_misuse_total", map[string]string{"operation": "iterator_remove"})

	// assert
	m := findMetric(t, collect(t, reader), "eventstore_iterator_misuse_total")
	assert.Equal(t, "EventStore iterator calls in an invalid state", m.Description)
	assert.Len(t, m.Data.(metricdata.Sum[int64]).DataPoints, 2)
}

func Test_MetricsCollector_ConcurrentUse(t *testing.T) {
	// setup
	collector, reader := givenMetricsCollector()

	// act
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				collector.IncrementCounter("eventstore_events_inserted_total", nil)
				collector.RecordDuration("eventstore_insert_duration_seconds", time.Microsecond, nil)
			}
		}()
	}
	wg.Wait()

	// assert
	m := findMetric(t, collect(t, reader), "eventstore_events_inserted_total")
	assert.Equal(t, int64(800), m.Data.(metricdata.Sum[int64]).DataPoints[0].Value)
}
