package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSelf        Role = "self"
	RoleCounterpart Role = "counterpart"
)

// Status is the delivery status of a message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// rank orders statuses for the optional monotonic guard.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return -1
	}
}

// ParseStatus validates a wire status value. Pending is local-only and never accepted from the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSent, StatusDelivered, StatusRead:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown message status %q", s)
	}
}

// Kind distinguishes plain text from template instantiations.
type Kind string

const (
	KindText     Kind = "text"
	KindTemplate Kind = "template"
)

// Param is one placeholder substitution of a template message.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered placeholder mapping. It encodes as a JSON object
// and keeps the key order of the source document when decoded.
type Params []Param

// MarshalJSON writes the params as a JSON object in slice order.
func (p Params) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values, preserving key order.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("parameters: expected object, got %v", tok)
	}
	out := Params{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		out = append(out, Param{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// Get returns the value for name.
func (p Params) Get(name string) (string, bool) {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Message is one entry of a transcript.
type Message struct {
	ID           MessageID
	Body         string
	Role         Role
	Timestamp    time.Time
	Status       Status
	Kind         Kind
	TemplateName string
	Params       Params
}

func (m Message) clone() Message {
	if m.Params != nil {
		m.Params = append(Params(nil), m.Params...)
	}
	return m
}

// Summary is the lightweight per-conversation record shown in the conversation list.
type Summary struct {
	ID        string
	Name      string
	Address   string
	Avatar    string
	Preview   string
	PreviewAt time.Time
	Unread    int
}

// Outcome is the result of a delivery attempt used by Reconcile.
type Outcome struct {
	ConfirmedID string
	Status      Status
	Err         error
}

// Success builds a successful outcome for a backend-confirmed id.
func Success(confirmedID string) Outcome {
	return Outcome{ConfirmedID: confirmedID, Status: StatusSent}
}

// Failure builds a failed outcome.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil && o.ConfirmedID != ""
}

// View is a copy of the store state for presentation.
type View struct {
	Summaries  []Summary
	ActiveID   string
	Transcript []Message
}

// LoadTicket tags a transcript load with the selection it was issued for.
type LoadTicket struct {
	ConversationID string
	generation     uint64
}

// Valid reports whether the ticket refers to a conversation.
func (t LoadTicket) Valid() bool {
	return t.ConversationID != ""
}
