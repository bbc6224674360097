// Package memengine provides a concurrent, in-memory implementation of the event store.
//
// Events are grouped by event type, each type held in its own lock-free singly linked list.
// Insert, RemoveAll and Query may be called from any number of goroutines at once and never block each other.
//
// Queries are lazy. Query returns an EventIterator immediately and matching is evaluated entry by entry
// while the iterator advances, against the live data. Events inserted or removed while an iterator is in use
// may or may not be observed by it, but an iterator never yields an entry twice and never yields an entry
// that was removed before it was scanned.
//
// Observability is optional and dependency-free, see WithLogger, WithContextualLogger, WithMetrics and WithTracing.
// The eventstore/oteladapters and eventstore/promadapters packages plug OpenTelemetry and Prometheus in.
package memengine
