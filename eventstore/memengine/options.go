package memengine

import (
	"github.com/andresramilo/challenge-eventstore/eventstore"
)

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithLogger sets the logger for the EventStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: every insert with its duration (development use)
// Info level: removals and completed queries with event counts and durations (production-safe)
// Warn level: iterator misuse (Current/Remove in an invalid state)
// Error level: rejected inserts.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		if logger == nil {
			return eventstore.ErrNilObservabilityCollector
		}

		es.logger = logger

		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventStore.
// It receives the same messages as the Logger, together with the operation's context,
// which enables trace/span correlation when tracing is enabled.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		if logger == nil {
			return eventstore.ErrNilObservabilityCollector
		}

		es.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
// It receives operation durations, inserted/removed/queried event counts, stored event gauges
// and iterator misuse counters.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		if collector == nil {
			return eventstore.ErrNilObservabilityCollector
		}

		es.metricsCollector = collector

		return nil
	}
}

// WithTracing sets the tracing collector for the EventStore.
// Insert and RemoveAll get one span each. A query span starts with Query and finishes
// when its iterator is exhausted or closed.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) error {
		if collector == nil {
			return eventstore.ErrNilObservabilityCollector
		}

		es.tracingCollector = collector

		return nil
	}
}
