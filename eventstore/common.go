package eventstore

import (
	"errors"

	"github.com/andresramilo/challenge-eventstore/events"
)

// ErrInvalidIteratorState is returned when an iterator's Current or Remove is called while it is not
// positioned on an event: before the first MoveNext, after MoveNext returned false,
// or for a second Remove of the same event.
var ErrInvalidIteratorState = errors.New("invalid iterator state")

var ErrEmptyEventType = events.ErrEmptyEventType
var ErrNilObservabilityCollector = errors.New("nil logger or collector supplied")
