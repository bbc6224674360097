package fixtures

import (
	_ "embed"

	"github.com/andresramilo/challenge-eventstore/events"
)

// Event types of the standard data set.
const (
	EventTypeA = "A"
	EventTypeB = "B"
	EventTypeC = "C"
)

// StandardTimestampCount is the number of events per type in the standard data set, with timestamps 0..9.
const StandardTimestampCount = 10

//go:embed standard_events.json
var standardEventsJSON []byte

// StandardEvents returns a fresh copy of the standard data set.
// It panics if the embedded JSON is broken, which would be a bug in this package.
func StandardEvents() events.Events {
	evts, err := events.EventsFromJSON(standardEventsJSON)
	if err != nil {
		panic(err)
	}

	return evts
}

// StandardEventsOfType returns the events of one type from the standard data set.
func StandardEventsOfType(eventType events.EventTypeString) events.Events {
	filtered := make(events.Events, 0, StandardTimestampCount)

	for _, event := range StandardEvents() {
		if event.EventType() == eventType {
			filtered = append(filtered, event)
		}
	}

	return filtered
}

// EventsOfType builds one event of eventType per given timestamp.
func EventsOfType(eventType events.EventTypeString, timestamps ...events.TimestampInt64) events.Events {
	evts := make(events.Events, 0, len(timestamps))

	for _, ts := range timestamps {
		evts = append(evts, events.MustBuildEvent(eventType, ts))
	}

	return evts
}
