package analytics

import (
	"encoding/json"
	"time"
)

// EventBuffer keeps events in insertion order for the life of one Client.
// It has no cap and no locking of its own; the Client serializes access.
type EventBuffer struct {
	events []Event
	now    func() time.Time
	loc    *time.Location
}

func NewEventBuffer(now func() time.Time, loc *time.Location) *EventBuffer {
	return &EventBuffer{now: now, loc: loc}
}

// Track appends an event stamped with the current time.
func (b *EventBuffer) Track(name string, value any) Event {
	e := Event{
		Name:    name,
		Value:   value,
		Created: Timestamp{b.now().In(b.loc)},
	}
	b.events = append(b.events, e)
	return e
}

func (b *EventBuffer) IsEmpty() bool {
	return len(b.events) == 0
}

func (b *EventBuffer) Len() int {
	return len(b.events)
}

// Drain empties the buffer and returns what it held.
func (b *EventBuffer) Drain() []Event {
	events := b.events
	b.events = nil
	return events
}

// encodeValues encodes every event value on its own, so a value JSON cannot
// represent (NaN, a channel, a func) costs only that value. Such values are
// sent as null.
func encodeValues(events []Event, logger *analyticsLogger) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		data, err := json.Marshal(e.Value)
		if err != nil {
			logger.Debug("Event value cannot be encoded, sending null", "event", e.Name, "error", err)
			data = []byte("null")
		}
		e.Value = json.RawMessage(data)
		out[i] = e
	}
	return out
}
