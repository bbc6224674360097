// Package eventstore provides core abstractions and types for an in-memory store of
// typed, timestamped events.
//
// This package defines the engine-agnostic pieces used by the store implementation:
// the query Filter with its builder, the observability interfaces and the common
// error definitions.
//
// A Filter selects events by:
//   - Event type (exact, case-sensitive)
//   - A half-open timestamp range [from, until), each bound optional
//
// Key types:
//   - Filter: Defines criteria for querying events
//   - Logger, ContextualLogger: Operational logging
//   - MetricsCollector, TracingCollector: Metrics and tracing plug points
//
// Common usage pattern:
//
//	filter := eventstore.BuildEventFilter().
//		OfEventType("A").
//		OccurredFrom(0).
//		AndOccurredUntil(10).
//		Finalize()
//
//	it := store.QueryFilter(ctx, filter)
//	defer it.Close()
//
//	for it.MoveNext() {
//		event, _ := it.Current()
//		// use event
//	}
package eventstore
