package events

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

type EventTypeString = string
type TimestampInt64 = int64
type Events = []Event

var ErrEmptyEventType = errors.New("event type must not be empty")
var ErrInvalidEventJSON = errors.New("event json is not valid")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event is an immutable (type, timestamp) value.
//
// Two events are equal iff their type and timestamp are equal, so Event can be compared with ==.
// It should only be constructed with the supplied factory methods:
//   - BuildEvent
//   - MustBuildEvent
//   - EventFromJSON
type Event struct {
	eventType EventTypeString
	timestamp TimestampInt64
}

// BuildEvent is a factory method for Event.
//
// Returns ErrEmptyEventType if eventType is empty. Event types are case-sensitive.
func BuildEvent(eventType EventTypeString, timestamp TimestampInt64) (Event, error) {
	if eventType == "" {
		return Event{}, ErrEmptyEventType
	}

	return Event{eventType: eventType, timestamp: timestamp}, nil
}

// MustBuildEvent is like BuildEvent but panics on an empty eventType.
// It is meant for fixtures and tests.
func MustBuildEvent(eventType EventTypeString, timestamp TimestampInt64) Event {
	event, err := BuildEvent(eventType, timestamp)
	if err != nil {
		panic(err)
	}

	return event
}

func (e Event) EventType() EventTypeString {
	return e.eventType
}

func (e Event) Timestamp() TimestampInt64 {
	return e.timestamp
}

// IsZero reports whether e is the zero value, which no factory method produces.
func (e Event) IsZero() bool {
	return e.eventType == ""
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%d", e.eventType, e.timestamp)
}

/***** JSON *****/

type eventJSON struct {
	Type      EventTypeString `json:"type"`
	Timestamp TimestampInt64  `json:"timestamp"`
}

// ToJSON serializes the event as {"type":"...","timestamp":...}.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(eventJSON{Type: e.eventType, Timestamp: e.timestamp})
}

// EventFromJSON is the inverse of Event.ToJSON.
func EventFromJSON(data []byte) (Event, error) {
	var dto eventJSON

	if err := json.Unmarshal(data, &dto); err != nil {
		return Event{}, errors.Join(ErrInvalidEventJSON, err)
	}

	return BuildEvent(dto.Type, dto.Timestamp)
}

// EventsToJSON serializes events as a JSON array.
func EventsToJSON(events Events) ([]byte, error) {
	dtos := make([]eventJSON, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventJSON{Type: e.eventType, Timestamp: e.timestamp})
	}

	return json.Marshal(dtos)
}

// EventsFromJSON decodes a JSON array of events. It fails on the first invalid element.
func EventsFromJSON(data []byte) (Events, error) {
	var dtos []eventJSON

	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, errors.Join(ErrInvalidEventJSON, err)
	}

	result := make(Events, 0, len(dtos))
	for i, dto := range dtos {
		event, buildErr := BuildEvent(dto.Type, dto.Timestamp)
		if buildErr != nil {
			return nil, errors.Join(fmt.Errorf("element %d", i), buildErr)
		}

		result = append(result, event)
	}

	return result, nil
}
