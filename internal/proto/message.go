package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeAssign   = "assign"
	InboundTypeSnapshot = "snapshot"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	// EventLastFour carries the display window. The name is kept for
	// existing display clients regardless of the configured capacity.
	EventLastFour = "last-four"
)

// Identifier is a ticket number or desk. It accepts JSON strings and numbers
// and always encodes as a string.
type Identifier string

// UnmarshalJSON implements json.Unmarshaler.
func (id *Identifier) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = Identifier(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = Identifier(n.String())
	return nil
}

// Assignment is one ticket→desk pair on the wire.
type Assignment struct {
	Number Identifier `json:"number"`
	Desk   Identifier `json:"desk"`
}

// AssignData is sent by producers to announce an assignment.
type AssignData = Assignment

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// LastFour is the ordered slot array, newest first; empty slots are null.
type LastFour []*Assignment

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
