package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresramilo/challenge-eventstore/events"
)

func Test_BuildEvent(t *testing.T) {
	event, err := events.BuildEvent("A", 1000)

	require.NoError(t, err)
	assert.Equal(t, "A", event.EventType())
	assert.Equal(t, int64(1000), event.Timestamp())
	assert.False(t, event.IsZero())
	assert.Equal(t, "A@1000", event.String())
}

func Test_BuildEvent_RejectsEmptyEventType(t *testing.T) {
	event, err := events.BuildEvent("", 1)

	assert.ErrorIs(t, err, events.ErrEmptyEventType)
	assert.True(t, event.IsZero())
}

func Test_MustBuildEvent_PanicsOnEmptyEventType(t *testing.T) {
	assert.Panics(t, func() { events.MustBuildEvent("", 0) })
	assert.NotPanics(t, func() { events.MustBuildEvent("A", -5) })
}

func Test_Event_ValueEquality(t *testing.T) {
	tests := []struct {
		name  string
		a     events.Event
		b     events.Event
		equal bool
	}{
		{
			name:  "same_type_and_timestamp",
			a:     events.MustBuildEvent("A", 1),
			b:     events.MustBuildEvent("A", 1),
			equal: true,
		},
		{
			name:  "different_timestamp",
			a:     events.MustBuildEvent("A", 1),
			b:     events.MustBuildEvent("A", 2),
			equal: false,
		},
		{
			name:  "event_type_is_case_sensitive",
			a:     events.MustBuildEvent("A", 1),
			b:     events.MustBuildEvent("a", 1),
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a == tt.b)
		})
	}
}

func Test_Event_JSONRoundTrip(t *testing.T) {
	event := events.MustBuildEvent("SensorRead", -42)

	data, err := event.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"SensorRead","timestamp":-42}`, string(data))

	decoded, err := events.EventFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func Test_EventFromJSON_ErrorCases(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedErr error
	}{
		{name: "malformed json", data: []byte(`{"type": A}`), expectedErr: events.ErrInvalidEventJSON},
		{name: "nil input", data: nil, expectedErr: events.ErrInvalidEventJSON},
		{name: "wrong timestamp type", data: []byte(`{"type":"A","timestamp":"x"}`), expectedErr: events.ErrInvalidEventJSON},
		{name: "missing type", data: []byte(`{"timestamp":1}`), expectedErr: events.ErrEmptyEventType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := events.EventFromJSON(tt.data)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func Test_EventsFromJSON(t *testing.T) {
	input := events.Events{
		events.MustBuildEvent("A", 0),
		events.MustBuildEvent("B", 1),
		events.MustBuildEvent("A", 0),
	}

	data, err := events.EventsToJSON(input)
	require.NoError(t, err)

	decoded, err := events.EventsFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, input, decoded)

	_, err = events.EventsFromJSON([]byte(`[{"type":"A","timestamp":1},{"type":"","timestamp":2}]`))
	assert.ErrorIs(t, err, events.ErrEmptyEventType)
	assert.ErrorContains(t, err, "element 1")
}
