// Package fixtures contains the standard event data set used across the store tests.
//
// The data set holds the event types "A", "B" and "C" with the timestamps 0 to 9 each, inserted type by type
// in ascending timestamp order. It is kept as JSON, the same wire format events.EventsToJSON produces.
package fixtures
