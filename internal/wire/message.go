package wire

import (
	"fmt"
	"time"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

// Message is the JSON shape of a message on the wire and in the HTTP API.
type Message struct {
	ID           string              `json:"id"`
	ChatID       string              `json:"chatId,omitempty"`
	Text         string              `json:"text"`
	Sender       string              `json:"sender"`
	Timestamp    string              `json:"timestamp"`
	Status       string              `json:"status,omitempty"`
	Type         string              `json:"type,omitempty"`
	TemplateName string              `json:"template_name,omitempty"`
	Parameters   conversation.Params `json:"parameters,omitempty"`
}

// Contact is the JSON shape of a counterpart.
type Contact struct {
	Name      string `json:"name"`
	Phone     string `json:"phone_number"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Sender values. self and counterpart are accepted as aliases.
const (
	SenderUser    = "user"
	SenderContact = "contact"
)

// ToMessage converts a wire message into the domain type. The message id is
// always treated as backend-confirmed.
func (w Message) ToMessage() (conversation.Message, error) {
	m := conversation.Message{
		ID:           conversation.Confirmed(w.ID),
		Body:         w.Text,
		TemplateName: w.TemplateName,
		Params:       w.Parameters,
	}

	switch w.Sender {
	case SenderUser, string(conversation.RoleSelf):
		m.Role = conversation.RoleSelf
	case SenderContact, string(conversation.RoleCounterpart), "":
		m.Role = conversation.RoleCounterpart
	default:
		return conversation.Message{}, fmt.Errorf("unknown sender %q", w.Sender)
	}

	switch w.Type {
	case "", string(conversation.KindText):
		m.Kind = conversation.KindText
	case string(conversation.KindTemplate):
		m.Kind = conversation.KindTemplate
	default:
		return conversation.Message{}, fmt.Errorf("unknown message type %q", w.Type)
	}

	m.Status = conversation.StatusSent
	if w.Status != "" {
		st, err := conversation.ParseStatus(w.Status)
		if err != nil {
			return conversation.Message{}, err
		}
		m.Status = st
	}

	ts, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return conversation.Message{}, err
	}
	m.Timestamp = ts
	return m, nil
}

// FromMessage renders a domain message for the wire.
func FromMessage(m conversation.Message) Message {
	w := Message{
		ID:           m.ID.String(),
		Text:         m.Body,
		Timestamp:    FormatTimestamp(m.Timestamp),
		Status:       string(m.Status),
		Type:         string(m.Kind),
		TemplateName: m.TemplateName,
		Parameters:   m.Params,
		Sender:       SenderContact,
	}
	if m.Role == conversation.RoleSelf {
		w.Sender = SenderUser
	}
	return w
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds, and
// the zone-less form the backend emits for naive datetimes (read as UTC).
// An empty value yields the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatTimestamp renders t as RFC 3339 in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
