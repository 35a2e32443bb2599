package gemini

import (
	"encoding/json"
	"errors"
)

// errNotObject marks lines that parse as JSON but are not objects (null,
// arrays, bare scalars); they carry none of the event fields.
var errNotObject = errors.New("line is not a JSON object")

// eventTypeTurnCompleted is the sentinel type tag the CLI emits when it has
// finished producing output for the current turn.
const eventTypeTurnCompleted = "turn.completed"

// Event is one decoded line of the CLI's stream-json output. Only the
// recognized fields are decoded; the raw line is retained so all_messages
// round-trips every field the CLI emitted, not just the ones we understand.
type Event struct {
	// Type is the event's type tag, e.g. "message" or "turn.completed".
	Type string `json:"type"`

	// Role is the author of a message event, e.g. "assistant".
	Role string `json:"role"`

	// Content is the text payload of a message event.
	Content string `json:"content"`

	// SessionID is the continuation identifier. Nil when the field is
	// absent or JSON null; both are ignored by the aggregator.
	SessionID *string `json:"session_id"`

	raw json.RawMessage
}

// decodeEvent parses a single stream line into an Event. A line that is not
// a JSON object with the expected field types is not an Event.
func decodeEvent(line string) (Event, error) {
	if len(line) == 0 || line[0] != '{' {
		return Event{}, errNotObject
	}
	type plain Event
	var ev plain
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return Event{}, err
	}
	out := Event(ev)
	out.raw = json.RawMessage(line)
	return out, nil
}

// MarshalJSON emits the original line so no CLI-provided fields are lost.
func (e Event) MarshalJSON() ([]byte, error) {
	if len(e.raw) > 0 {
		return e.raw, nil
	}
	type plain Event
	return json.Marshal(plain(e))
}
