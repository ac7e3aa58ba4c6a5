package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventLastFour delivers the current window snapshot.
	EventLastFour EventKind = iota
	// EventError notifies a single client about a rejected request.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// Slots is shared between recipients and must not be modified.
type Event struct {
	Kind  EventKind
	Slots []*TicketAssignment
	Error *CoreError
}

func snapshotEvent(slots []*TicketAssignment) *Event {
	return &Event{Kind: EventLastFour, Slots: slots}
}

// ErrorEvent builds an EventError for err.
func ErrorEvent(err error) *Event {
	return &Event{Kind: EventError, Error: ErrorFor(err)}
}
