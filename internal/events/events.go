package events

import (
	"encoding/json"
	"time"
)

// Event types emitted over the hub.
const (
	TypeRunStarted   = "run_started"
	TypeRunFinished  = "run_finished"
	TypeListingAdded = "listing_added"
)

// Event is the envelope every subscriber receives: what happened, when,
// and a type-specific payload.
type Event struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

func New(typ string, data any) Event {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	return Event{Type: typ, At: time.Now().UTC(), Data: raw}
}

// JSON renders the envelope for the SSE wire.
func (e Event) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}
