package core

import (
	"encoding/json"
	"fmt"
	"io"
)

type EventKind string

const (
	CreateEvent EventKind = "create"
	UpdateEvent EventKind = "update"
	DeleteEvent EventKind = "delete"
)

// Event is a message lifecycle occurrence as broadcast to subscribers.
// Create and update events carry the full message; delete events carry only
// the id of the removed message.
type Event struct {
	Kind    EventKind
	Message *Message
	ID      int
}

func NewCreateEvent(m *Message) *Event {
	return &Event{Kind: CreateEvent, Message: m, ID: m.ID}
}

func NewUpdateEvent(m *Message) *Event {
	return &Event{Kind: UpdateEvent, Message: m, ID: m.ID}
}

func NewDeleteEvent(id int) *Event {
	return &Event{Kind: DeleteEvent, ID: id}
}

func (e *Event) String() string {
	return fmt.Sprintf("Event{Kind: %s, ID: %d}", e.Kind, e.ID)
}

type deleteFrame struct {
	Action string `json:"action"`
	ID     int    `json:"id"`
}

// EncodeEvent writes the wire frame for the event. Deletions are framed as
// {"action":"delete","id":N}; creates and updates are framed as the bare
// message object with authorship anonymized where the message asks for it.
// Clients tag frames by the presence or absence of the "action" field.
func EncodeEvent(w io.Writer, e *Event) error {
	var v any
	switch e.Kind {
	case DeleteEvent:
		v = deleteFrame{Action: "delete", ID: e.ID}
	case CreateEvent, UpdateEvent:
		if e.Message == nil {
			return fmt.Errorf("%s event without message", e.Kind)
		}
		v = e.Message.Anonymized()
	default:
		return fmt.Errorf("unknown event kind: %s", e.Kind)
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return nil
}
