package memengine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/andresramilo/challenge-eventstore/events"
	"github.com/andresramilo/challenge-eventstore/eventstore"
)

const (
	spanNameInsert          = "eventstore.insert"
	spanNameRemoveAll       = "eventstore.remove_all"
	spanNameQuery           = "eventstore.query"
	spanAttrOperation       = "operation"
	spanAttrEventType       = "event_type"
	spanAttrQueryID         = "query_id"
	spanAttrOccurredFrom    = "occurred_from"
	spanAttrOccurredUntil   = "occurred_until"
	spanAttrEventCount      = "event_count"
	spanAttrScannedCount    = "scanned_count"
	spanAttrDurationMS      = "duration_ms"
	spanAttrErrorType       = "error_type"
	labelOperation          = "operation"
	labelStatus             = "status"
	labelEventType          = "event_type"
	labelErrorType          = "error_type"
	metricInsertDuration    = "eventstore_insert_duration_seconds"
	metricRemoveAllDuration = "eventstore_remove_all_duration_seconds"
	metricQueryDuration     = "eventstore_query_duration_seconds"
	metricEventsInserted    = "eventstore_events_inserted_total"
	metricOperationErrors   = "eventstore_operation_errors_total"
	metricIteratorMisuse    = "eventstore_iterator_misuse_total"
	metricIteratorRemovals  = "eventstore_iterator_removals_total"
	metricEventsRemoved     = "eventstore_events_removed"
	metricEventsQueried     = "eventstore_events_queried"
	metricEventsStored      = "eventstore_events_stored"
)

// === Logging ===
// Every message goes to the Logger and to the ContextualLogger, whichever are configured.

// logDebug logs at debug level.
func (es *EventStore) logDebug(ctx context.Context, msg string, args ...any) {
	if es.logger != nil {
		es.logger.Debug(msg, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

// logOperation logs operational information at info level.
func (es *EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs caller misuse at warn level.
func (es *EventStore) logWarn(ctx context.Context, msg string, args ...any) {
	if es.logger != nil {
		es.logger.Warn(msg, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

// logError logs error information at the error level.
func (es *EventStore) logError(ctx context.Context, message string, err error, args ...any) {
	if es.logger == nil && es.contextualLogger == nil {
		return
	}

	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if es.logger != nil {
		es.logger.Error(message, allArgs...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (es *EventStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatDurationMS(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d.Nanoseconds())/1e6)
}

// === Tracing Observer Pattern ===
// A nil *tracingObserver is valid and does nothing.

type tracingObserver struct {
	es   *EventStore
	span eventstore.SpanContext
}

// startTracing starts a span and wraps it in an observer if the tracing collector is configured.
func (es *EventStore) startTracing(
	ctx context.Context,
	spanName string,
	attrs map[string]string,
) (*tracingObserver, context.Context) {

	if es.tracingCollector == nil {
		return nil, ctx
	}

	newCtx, span := es.tracingCollector.StartSpan(ctx, spanName, attrs)

	return &tracingObserver{es: es, span: span}, newCtx
}

// startInsertTracing starts a span for an insert.
func (es *EventStore) startInsertTracing(ctx context.Context, event events.Event) (*tracingObserver, context.Context) {
	if es.tracingCollector == nil {
		return nil, ctx
	}

	return es.startTracing(ctx, spanNameInsert, map[string]string{
		spanAttrOperation: operationInsert,
		spanAttrEventType: event.EventType(),
	})
}

// startRemoveAllTracing starts a span for a RemoveAll call.
func (es *EventStore) startRemoveAllTracing(
	ctx context.Context,
	eventType events.EventTypeString,
) (*tracingObserver, context.Context) {

	if es.tracingCollector == nil {
		return nil, ctx
	}

	return es.startTracing(ctx, spanNameRemoveAll, map[string]string{
		spanAttrOperation: operationRemoveAll,
		spanAttrEventType: eventType,
	})
}

// startQueryTracing starts a span for a query. The span lives as long as the query's iterator.
func (es *EventStore) startQueryTracing(
	ctx context.Context,
	filter eventstore.Filter,
	queryID string,
) (*tracingObserver, context.Context) {

	if es.tracingCollector == nil {
		return nil, ctx
	}

	attrs := map[string]string{
		spanAttrOperation: operationQuery,
		spanAttrEventType: filter.EventType(),
		spanAttrQueryID:   queryID,
	}

	if from, ok := filter.OccurredFrom(); ok {
		attrs[spanAttrOccurredFrom] = strconv.FormatInt(from, 10)
	}

	if until, ok := filter.OccurredUntil(); ok {
		attrs[spanAttrOccurredUntil] = strconv.FormatInt(until, 10)
	}

	return es.startTracing(ctx, spanNameQuery, attrs)
}

// finishSuccess completes the span for a successful operation.
func (o *tracingObserver) finishSuccess(attrs map[string]string, duration time.Duration) {
	if o == nil || o.span == nil {
		return
	}

	o.span.SetStatus(eventstore.StatusSuccess)
	o.span.AddAttribute(spanAttrDurationMS, formatDurationMS(duration))

	o.es.tracingCollector.FinishSpan(o.span, eventstore.StatusSuccess, attrs)
}

// finishError completes the span with error details.
func (o *tracingObserver) finishError(errorType string, duration time.Duration) {
	if o == nil || o.span == nil {
		return
	}

	o.span.SetStatus(eventstore.StatusError)
	o.span.AddAttribute(spanAttrErrorType, errorType)
	o.span.AddAttribute(spanAttrDurationMS, formatDurationMS(duration))

	o.es.tracingCollector.FinishSpan(o.span, eventstore.StatusError, map[string]string{spanAttrErrorType: errorType})
}

// === Metrics Observer Pattern ===
// A nil *metricsObserver is valid and does nothing.

type metricsObserver struct {
	es        *EventStore
	ctx       context.Context
	operation string
	eventType events.EventTypeString
}

// startOperationMetrics creates a metrics observer if the metrics collector is configured.
func (es *EventStore) startOperationMetrics(
	ctx context.Context,
	operation string,
	eventType events.EventTypeString,
) *metricsObserver {

	if es.metricsCollector == nil {
		return nil
	}

	return &metricsObserver{
		es:        es,
		ctx:       ctx,
		operation: operation,
		eventType: eventType,
	}
}

func (o *metricsObserver) labels(operation, status string) map[string]string {
	return map[string]string{
		labelOperation: operation,
		labelStatus:    status,
		labelEventType: o.eventType,
	}
}

// storedLabels keys the stored gauge by event type only, so inserts and removals update one series.
func (o *metricsObserver) storedLabels() map[string]string {
	return map[string]string{labelEventType: o.eventType}
}

// recordInsertSuccess records the metrics of a successful insert.
func (o *metricsObserver) recordInsertSuccess(duration time.Duration, stored int) {
	if o == nil {
		return
	}

	o.es.recordDurationMetricsContext(o.ctx, metricInsertDuration, duration, o.labels(operationInsert, eventstore.StatusSuccess))
	o.es.incrementCounterContext(o.ctx, metricEventsInserted, o.labels(operationInsert, eventstore.StatusSuccess))
	o.es.recordValueMetricsContext(o.ctx, metricEventsStored, float64(stored), o.storedLabels())
}

// recordRemoveAllSuccess records the metrics of a RemoveAll call.
func (o *metricsObserver) recordRemoveAllSuccess(duration time.Duration, removed, stored int) {
	if o == nil {
		return
	}

	labels := o.labels(operationRemoveAll, eventstore.StatusSuccess)
	o.es.recordDurationMetricsContext(o.ctx, metricRemoveAllDuration, duration, labels)
	o.es.recordValueMetricsContext(o.ctx, metricEventsRemoved, float64(removed), labels)
	o.es.recordValueMetricsContext(o.ctx, metricEventsStored, float64(stored), o.storedLabels())
}

// recordQuerySuccess records the metrics of a finished query.
func (o *metricsObserver) recordQuerySuccess(duration time.Duration, yielded int) {
	if o == nil {
		return
	}

	labels := o.labels(operationQuery, eventstore.StatusSuccess)
	o.es.recordDurationMetricsContext(o.ctx, metricQueryDuration, duration, labels)
	o.es.recordValueMetricsContext(o.ctx, metricEventsQueried, float64(yielded), labels)
}

// recordError records the duration of a failed operation and counts the error.
func (o *metricsObserver) recordError(durationMetric string, errorType string, duration time.Duration) {
	if o == nil {
		return
	}

	o.es.recordDurationMetricsContext(o.ctx, durationMetric, duration, o.labels(o.operation, eventstore.StatusError))

	labels := o.labels(o.operation, eventstore.StatusError)
	labels[labelErrorType] = errorType
	o.es.incrementCounterContext(o.ctx, metricOperationErrors, labels)
}

// recordIteratorMisuse counts a Current or Remove call in an invalid iterator state.
func (o *metricsObserver) recordIteratorMisuse(action string) {
	if o == nil {
		return
	}

	labels := o.labels(action, eventstore.StatusError)
	labels[labelErrorType] = errorTypeInvalidIteratorState
	o.es.incrementCounterContext(o.ctx, metricIteratorMisuse, labels)
}

// recordIteratorRemoval counts an event removed through an iterator.
func (o *metricsObserver) recordIteratorRemoval() {
	if o == nil {
		return
	}

	o.es.incrementCounterContext(o.ctx, metricIteratorRemovals, o.labels(operationIteratorRemove, eventstore.StatusSuccess))
}

// recordDurationMetricsContext records a duration, with context if the collector supports it.
func (es *EventStore) recordDurationMetricsContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	labels map[string]string,
) {

	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
		return
	}

	es.metricsCollector.RecordDuration(metricName, duration, labels)
}

// incrementCounterContext increments a counter, with context if the collector supports it.
func (es *EventStore) incrementCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricName, labels)
		return
	}

	es.metricsCollector.IncrementCounter(metricName, labels)
}

// recordValueMetricsContext records a value, with context if the collector supports it.
func (es *EventStore) recordValueMetricsContext(
	ctx context.Context,
	metricName string,
	value float64,
	labels map[string]string,
) {

	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
		return
	}

	es.metricsCollector.RecordValue(metricName, value, labels)
}
