package helper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andresramilo/challenge-eventstore/events"
	"github.com/andresramilo/challenge-eventstore/eventstore/memengine"
)

// GivenEmptyStore creates an EventStore with the given options and fails the test if that is not possible.
func GivenEmptyStore(t testing.TB, options ...memengine.Option) *memengine.EventStore {
	es, err := memengine.NewEventStore(options...)
	require.NoError(t, err, "error in arranging test data")

	return es
}

// GivenEventsWereInserted inserts the events in order.
func GivenEventsWereInserted(t testing.TB, ctx context.Context, es *memengine.EventStore, evts ...events.Event) {
	for _, event := range evts {
		require.NoError(t, es.Insert(ctx, event), "error in arranging test data")
	}
}

// Drain consumes the iterator, closes it and returns the events it yielded.
func Drain(t testing.TB, it *memengine.EventIterator) events.Events {
	collected := make(events.Events, 0)

	for it.MoveNext() {
		event, err := it.Current()
		require.NoError(t, err)
		collected = append(collected, event)
	}

	require.NoError(t, it.Close())

	return collected
}

// QueryAll drains a query over [startTime, endTime).
func QueryAll(
	t testing.TB,
	ctx context.Context,
	es *memengine.EventStore,
	eventType events.EventTypeString,
	startTime events.TimestampInt64,
	endTime events.TimestampInt64,
) events.Events {

	return Drain(t, es.Query(ctx, eventType, startTime, endTime))
}

// CountEvents counts the events of eventType with startTime <= timestamp < endTime.
func CountEvents(
	t testing.TB,
	ctx context.Context,
	es *memengine.EventStore,
	eventType events.EventTypeString,
	startTime events.TimestampInt64,
	endTime events.TimestampInt64,
) int {

	return len(QueryAll(t, ctx, es, eventType, startTime, endTime))
}

// Timestamps maps events to their timestamps, which keeps assertions on result order short.
func Timestamps(evts events.Events) []events.TimestampInt64 {
	timestamps := make([]events.TimestampInt64, 0, len(evts))
	for _, event := range evts {
		timestamps = append(timestamps, event.Timestamp())
	}

	return timestamps
}
