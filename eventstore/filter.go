package eventstore

import (
	"github.com/andresramilo/challenge-eventstore/events"
)

type FilterEventTypeString = string
type FilterTimestampInt64 = int64

/***** Filter *****/

// Filter selects the events of exactly one event type whose timestamp lies in the half-open range [from, until).
// An unset bound is open, so a Filter without bounds matches every event of its type.
type Filter struct {
	eventType     FilterEventTypeString
	occurredFrom  FilterTimestampInt64
	hasFrom       bool
	occurredUntil FilterTimestampInt64
	hasUntil      bool
}

func (f Filter) EventType() FilterEventTypeString {
	return f.eventType
}

// OccurredFrom returns the inclusive lower bound and whether it is set.
func (f Filter) OccurredFrom() (FilterTimestampInt64, bool) {
	return f.occurredFrom, f.hasFrom
}

// OccurredUntil returns the exclusive upper bound and whether it is set.
func (f Filter) OccurredUntil() (FilterTimestampInt64, bool) {
	return f.occurredUntil, f.hasUntil
}

// IsEmptyRange reports whether both bounds are set and no timestamp can satisfy from <= ts < until.
func (f Filter) IsEmptyRange() bool {
	return f.hasFrom && f.hasUntil && f.occurredFrom >= f.occurredUntil
}

// MatchesNothing reports whether the Filter can never match, either because it has no event type
// or because its range is empty.
func (f Filter) MatchesNothing() bool {
	return f.eventType == "" || f.IsEmptyRange()
}

// Matches evaluates the Filter against a single event.
func (f Filter) Matches(event events.Event) bool {
	if f.eventType == "" || event.EventType() != f.eventType {
		return false
	}

	return f.MatchesTimestamp(event.Timestamp())
}

// MatchesTimestamp evaluates only the time range part of the Filter.
func (f Filter) MatchesTimestamp(timestamp FilterTimestampInt64) bool {
	if f.hasFrom && timestamp < f.occurredFrom {
		return false
	}

	if f.hasUntil && timestamp >= f.occurredUntil {
		return false
	}

	return true
}

/***** FilterBuilder *****/

// FilterBuilder builds a Filter. It only allows the combinations that make sense for the store:
//
//   - (eventType)
//   - (eventType AND timestamp >= from)
//   - (eventType AND timestamp < until)
//   - (eventType AND from <= timestamp < until)
type FilterBuilder interface {
	// OfEventType sets the (mandatory) event type.
	OfEventType(eventType FilterEventTypeString) FilterBuilderLackingRange
}

type FilterBuilderLackingRange interface {
	// OccurredFrom sets the inclusive lower bound.
	OccurredFrom(from FilterTimestampInt64) FilterBuilderLackingUntil

	// OccurredUntil sets the exclusive upper bound.
	OccurredUntil(until FilterTimestampInt64) CompletedFilterBuilder

	// Finalize returns the Filter matching all timestamps.
	Finalize() Filter
}

type FilterBuilderLackingUntil interface {
	// AndOccurredUntil sets the exclusive upper bound.
	AndOccurredUntil(until FilterTimestampInt64) CompletedFilterBuilder

	// Finalize returns the Filter with an open upper bound.
	Finalize() Filter
}

type CompletedFilterBuilder interface {
	// Finalize returns the Filter.
	Finalize() Filter
}

// filterBuilder implements all the interfaces of FilterBuilder
type filterBuilder struct {
	filter Filter
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

// OfEventType sets the event type. An empty event type yields a Filter that matches nothing.
func (fb filterBuilder) OfEventType(eventType FilterEventTypeString) FilterBuilderLackingRange {
	fb.filter.eventType = eventType

	return fb
}

// OccurredFrom sets the inclusive lower bound.
func (fb filterBuilder) OccurredFrom(from FilterTimestampInt64) FilterBuilderLackingUntil {
	fb.filter.occurredFrom = from
	fb.filter.hasFrom = true

	return fb
}

// OccurredUntil sets the exclusive upper bound.
func (fb filterBuilder) OccurredUntil(until FilterTimestampInt64) CompletedFilterBuilder {
	fb.filter.occurredUntil = until
	fb.filter.hasUntil = true

	return fb
}

// AndOccurredUntil sets the exclusive upper bound.
func (fb filterBuilder) AndOccurredUntil(until FilterTimestampInt64) CompletedFilterBuilder {
	return fb.OccurredUntil(until)
}

// Finalize returns the Filter.
func (fb filterBuilder) Finalize() Filter {
	return fb.filter
}
