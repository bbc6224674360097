package memengine

import (
	"context"
	"time"

	"github.com/andresramilo/challenge-eventstore/events"
	"github.com/andresramilo/challenge-eventstore/eventstore"
)

type iteratorState int

const (
	stateFresh iteratorState = iota
	statePositioned
	stateExhausted
)

// EventIterator is a forward-only cursor over the result of a query.
//
// It starts before the first event (Fresh). Each successful MoveNext positions it on the next matching event
// (Positioned), the first unsuccessful one exhausts it for good (Exhausted). Current and Remove are only legal
// while Positioned and fail with eventstore.ErrInvalidIteratorState otherwise.
//
// The iterator walks the store's live data, it does not take a snapshot. It is not safe for concurrent use.
type EventIterator struct {
	store          *EventStore
	filter         eventstore.Filter
	list           *eventList
	cursor         listCursor
	current        *eventNode
	currentRemoved bool
	state          iteratorState

	ctx      context.Context
	queryID  string
	started  time.Time
	yielded  int
	scanned  int
	finished bool
	tracing  *tracingObserver
	metrics  *metricsObserver
}

// MoveNext advances to the next event matching the query at the moment it is scanned
// and reports whether there was one. Once it returned false it always returns false.
func (it *EventIterator) MoveNext() bool {
	if it.state == stateExhausted {
		return false
	}

	if it.state == stateFresh {
		it.resolveList()
	}

	if it.list != nil {
		for node := it.cursor.next(); node != nil; node = it.cursor.next() {
			it.scanned++

			if it.filter.Matches(node.event) {
				it.current = node
				it.currentRemoved = false
				it.state = statePositioned
				it.yielded++

				return true
			}
		}
	}

	it.exhaust()

	return false
}

// Current returns the event the iterator is positioned on.
// It keeps returning that event after a successful Remove, until the next MoveNext.
func (it *EventIterator) Current() (events.Event, error) {
	if it.state != statePositioned {
		return events.Event{}, it.invalidState(operationIteratorCurrent)
	}

	return it.current.event, nil
}

// Remove removes the event the iterator is positioned on from the store. It does not advance the iterator.
//
// Only that exact entry is removed, never an equal event inserted separately. Removing the same position twice
// fails with eventstore.ErrInvalidIteratorState. If the entry was already removed through another path
// (RemoveAll or another iterator), Remove succeeds without doing anything.
func (it *EventIterator) Remove() error {
	if it.state != statePositioned || it.currentRemoved {
		return it.invalidState(operationIteratorRemove)
	}

	it.currentRemoved = true

	if it.list.remove(it.current) {
		it.metrics.recordIteratorRemoval()
	}

	return nil
}

// Close reports the query as completed if that did not happen yet. It never fails and leaves the
// iterator's position alone: the iterator holds no external resources, so there is nothing to release.
// Calling Close more than once is fine.
func (it *EventIterator) Close() error {
	it.finish()

	return nil
}

// QueryID returns the correlation ID of the query, as used in log records and span attributes.
func (it *EventIterator) QueryID() string {
	return it.queryID
}

// resolveList looks up the event type's list on the first MoveNext, so that a query issued before
// the first insert of its type still sees events inserted before it starts iterating.
func (it *EventIterator) resolveList() {
	if it.filter.MatchesNothing() {
		return
	}

	if list, ok := it.store.loadBucket(it.filter.EventType()); ok {
		it.list = list
		it.cursor = list.cursor()
	}
}

func (it *EventIterator) exhaust() {
	it.state = stateExhausted
	it.current = nil
	it.list = nil
	it.cursor = listCursor{}
	it.finish()
}

// finish reports the completed query exactly once.
func (it *EventIterator) finish() {
	if it.finished {
		return
	}

	it.finished = true
	duration := time.Since(it.started)

	it.store.logOperation(
		it.ctx,
		logMsgQueryCompleted,
		logAttrEventType, it.filter.EventType(),
		logAttrQueryID, it.queryID,
		logAttrEventCount, it.yielded,
		logAttrScannedCount, it.scanned,
		logAttrDurationMS, it.store.toMilliseconds(duration),
	)
	it.tracing.finishSuccess(
		map[string]string{
			spanAttrEventCount:   formatInt(it.yielded),
			spanAttrScannedCount: formatInt(it.scanned),
		},
		duration,
	)
	it.metrics.recordQuerySuccess(duration, it.yielded)
}

func (it *EventIterator) invalidState(action string) error {
	err := eventstore.ErrInvalidIteratorState

	it.store.logWarn(
		it.ctx,
		logMsgInvalidIteratorState,
		logAttrQueryID, it.queryID,
		logAttrIteratorAction, action,
		logAttrError, err.Error(),
	)
	it.metrics.recordIteratorMisuse(action)

	return err
}
