package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/andresramilo/challenge-eventstore/eventstore/memengine"
	"github.com/andresramilo/challenge-eventstore/eventstore/oteladapters"
	"github.com/andresramilo/challenge-eventstore/testutil/eventstore/fixtures"
	"github.com/andresramilo/challenge-eventstore/testutil/memengine/helper"
)

func Test_MemEngine_WithOpenTelemetry(t *testing.T) {
	// setup
	ctx := context.Background()
	spanRecorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder)).Tracer("eventstore")
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("eventstore")
	logs := &logRecorder{}

	es := helper.GivenEmptyStore(
		t,
		memengine.WithTracing(oteladapters.NewTracingCollector(tracer)),
		memengine.WithMetrics(oteladapters.NewMetricsCollector(meter)),
		memengine.WithContextualLogger(oteladapters.NewOTelLogger(logs)),
	)

	// act
	helper.GivenEventsWereInserted(t, ctx, es, fixtures.StandardEvents()...)
	es.RemoveAll(ctx, fixtures.EventTypeC)
	found := helper.QueryAll(t, ctx, es, fixtures.EventTypeA, 0, 10)

	// assert
	require.Len(t, found, 10)

	spanCounts := make(map[string]int)
	for _, span := range spanRecorder.Ended() {
		spanCounts[span.Name()]++
	}
	assert.Equal(t, map[string]int{"eventstore.insert": 30, "eventstore.remove_all": 1, "eventstore.query": 1}, spanCounts)

	inserted := findMetric(t, collect(t, reader), "eventstore_events_inserted_total")
	total := int64(0)
	for _, dataPoint := range inserted.Data.(metricdata.Sum[int64]).DataPoints {
		total += dataPoint.Value
	}
	assert.Equal(t, int64(30), total)

	messages := make(map[string]int)
	for _, record := range logs.records {
		messages[record.Body().AsString()]++
	}
	assert.Equal(t, 30, messages["eventstore operation: event inserted"])
	assert.Equal(t, 1, messages["eventstore operation: events removed"])
	assert.Equal(t, 1, messages["eventstore operation: query completed"])
}
