package memengine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andresramilo/challenge-eventstore/events"
	"github.com/andresramilo/challenge-eventstore/eventstore"
)

const (
	logMsgEventInserted           = "event inserted"
	logMsgEventsRemoved           = "events removed"
	logMsgQueryCompleted          = "query completed"
	logMsgInsertRejected          = "insert rejected"
	logMsgInvalidIteratorState    = "invalid iterator state"
	logMsgOperation               = "eventstore operation: "
	logAttrError                  = "error"
	logAttrEventType              = "event_type"
	logAttrEventCount             = "event_count"
	logAttrScannedCount           = "scanned_count"
	logAttrDurationMS             = "duration_ms"
	logAttrQueryID                = "query_id"
	logAttrIteratorAction         = "iterator_action"
	operationInsert               = "insert"
	operationRemoveAll            = "remove_all"
	operationQuery                = "query"
	operationIteratorCurrent      = "iterator_current"
	operationIteratorRemove       = "iterator_remove"
	errorTypeEmptyEventType       = "empty_event_type"
	errorTypeInvalidIteratorState = "invalid_iterator_state"
)

// EventStore is a concurrent in-memory multiset of events.
//
// Events are kept in one lock-free list per event type. All operations may be called concurrently
// from any number of goroutines, none of them blocks another. Queries are lazy and weakly consistent:
// an EventIterator walks the live list, so events inserted or removed while it runs may or may not be seen.
//
// An EventStore must not be copied, use the pointer returned by NewEventStore.
type EventStore struct {
	buckets          sync.Map // events.EventTypeString -> *eventList
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

// NewEventStore creates a new, empty EventStore with optional configuration.
func NewEventStore(options ...Option) (*EventStore, error) {
	es := &EventStore{}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Insert appends the event to the store.
//
// The only failure is eventstore.ErrEmptyEventType for the zero-value events.Event,
// which none of the events factory methods produce. Timestamps may repeat and may arrive in any order.
func (es *EventStore) Insert(ctx context.Context, event events.Event) error {
	start := time.Now()
	tracing, ctx := es.startInsertTracing(ctx, event)
	metrics := es.startOperationMetrics(ctx, operationInsert, event.EventType())

	if event.IsZero() {
		duration := time.Since(start)
		es.logError(ctx, logMsgInsertRejected, eventstore.ErrEmptyEventType)
		tracing.finishError(errorTypeEmptyEventType, duration)
		metrics.recordError(metricInsertDuration, errorTypeEmptyEventType, duration)

		return eventstore.ErrEmptyEventType
	}

	list := es.bucketFor(event.EventType())
	list.append(event)

	duration := time.Since(start)
	es.logDebug(
		ctx,
		logMsgOperation+logMsgEventInserted,
		logAttrEventType, event.EventType(),
		logAttrDurationMS, es.toMilliseconds(duration),
	)
	tracing.finishSuccess(nil, duration)
	metrics.recordInsertSuccess(duration, list.len())

	return nil
}

// RemoveAll removes every currently stored event of the given type and returns how many this call removed.
//
// Events of other types are untouched. It is not atomic with respect to concurrent inserts of the same type:
// an event inserted while RemoveAll runs may or may not survive. Removing a type that was never inserted is a no-op.
func (es *EventStore) RemoveAll(ctx context.Context, eventType events.EventTypeString) int {
	start := time.Now()
	tracing, ctx := es.startRemoveAllTracing(ctx, eventType)
	metrics := es.startOperationMetrics(ctx, operationRemoveAll, eventType)

	removed := 0
	stored := 0

	if list, ok := es.loadBucket(eventType); ok {
		removed = list.removeAll()
		stored = list.len()
	}

	duration := time.Since(start)
	es.logOperation(
		ctx,
		logMsgEventsRemoved,
		logAttrEventType, eventType,
		logAttrEventCount, removed,
		logAttrDurationMS, es.toMilliseconds(duration),
	)
	tracing.finishSuccess(map[string]string{spanAttrEventCount: formatInt(removed)}, duration)
	metrics.recordRemoveAllSuccess(duration, removed, stored)

	return removed
}

// Query returns an EventIterator over the events of eventType with startTime <= timestamp < endTime.
//
// An inverted or empty range yields an iterator that reports no events. Matching is evaluated lazily,
// entry by entry, while the iterator advances. The iterator should be closed when the caller is done with it.
func (es *EventStore) Query(
	ctx context.Context,
	eventType events.EventTypeString,
	startTime events.TimestampInt64,
	endTime events.TimestampInt64,
) *EventIterator {

	filter := eventstore.BuildEventFilter().
		OfEventType(eventType).
		OccurredFrom(startTime).
		AndOccurredUntil(endTime).
		Finalize()

	return es.QueryFilter(ctx, filter)
}

// QueryFilter is like Query for a prebuilt eventstore.Filter, which allows open range bounds.
func (es *EventStore) QueryFilter(ctx context.Context, filter eventstore.Filter) *EventIterator {
	queryID := uuid.NewString()
	tracing, ctx := es.startQueryTracing(ctx, filter, queryID)

	return &EventIterator{
		store:   es,
		filter:  filter,
		ctx:     ctx,
		queryID: queryID,
		started: time.Now(),
		tracing: tracing,
		metrics: es.startOperationMetrics(ctx, operationQuery, filter.EventType()),
	}
}

// Len returns the number of stored events. Under concurrent mutation it is only a snapshot.
func (es *EventStore) Len() int {
	total := 0

	es.buckets.Range(func(_, value any) bool {
		total += value.(*eventList).len()
		return true
	})

	return total
}

// loadBucket returns the list for eventType if any event of that type was ever inserted.
func (es *EventStore) loadBucket(eventType events.EventTypeString) (*eventList, bool) {
	value, ok := es.buckets.Load(eventType)
	if !ok {
		return nil, false
	}

	return value.(*eventList), true
}

// bucketFor returns the list for eventType, creating it on first use.
// Buckets are never dropped, so an insert can never land in a list that is no longer reachable.
func (es *EventStore) bucketFor(eventType events.EventTypeString) *eventList {
	if list, ok := es.loadBucket(eventType); ok {
		return list
	}

	value, _ := es.buckets.LoadOrStore(eventType, newEventList())

	return value.(*eventList)
}
