package session

// EventType identifies the kind of session state change.
type EventType string

const (
	// EventLoaded indicates the store was replaced wholesale.
	EventLoaded EventType = "loaded"

	// EventInserted indicates a new spot was appended and selected.
	EventInserted EventType = "inserted"

	// EventUpdated indicates one field of one spot changed.
	EventUpdated EventType = "updated"

	// EventMoved indicates a spot was repositioned (lat and lon as one
	// logical edit).
	EventMoved EventType = "moved"

	// EventRemoved indicates a spot was deleted.
	EventRemoved EventType = "removed"

	// EventSelected indicates the selection changed. The map pans to the
	// spot; an empty ID means the selection was cleared.
	EventSelected EventType = "selected"

	// EventChecked indicates the checked set changed.
	EventChecked EventType = "checked"

	// EventEditMode indicates the edit mode toggle flipped.
	EventEditMode EventType = "edit_mode"

	// EventSaved indicates a save completed and dirty/checked state was
	// cleared accordingly.
	EventSaved EventType = "saved"
)

// Event describes one session state change. Subscribers receive exactly one
// event per mutation; they should read any further state they need back from
// the session rather than caching spot values.
type Event struct {
	Type EventType

	// ID is the affected spot, when the event concerns a single spot.
	ID string

	// Field is the updated field name, for EventUpdated.
	Field string
}

// Subscribe registers a callback invoked synchronously after each session
// mutation, outside the session's internal lock. Callbacks run in
// subscription order.
func (s *Session) Subscribe(fn func(Event)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subs = append(s.subs, fn)
}

// notify delivers an event to all subscribers. Must be called without s.mu
// held so subscribers can read session state.
func (s *Session) notify(ev Event) {
	s.subsMu.Lock()
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
