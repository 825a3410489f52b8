package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

var errMissingMessage = errors.New("new_message frame without message")

// Decoder turns raw text frames into events.
type Decoder struct {
	// Prefixes are stripped, with any whitespace that follows them, before
	// the frame is parsed as JSON.
	Prefixes []string
	// Now stamps messages that arrive without a timestamp.
	Now func() time.Time
}

// NewDecoder returns a decoder that strips the given prefixes. With no
// prefixes the development echo prefix is used.
func NewDecoder(prefixes ...string) *Decoder {
	if len(prefixes) == 0 {
		prefixes = []string{DefaultEchoPrefix}
	}
	return &Decoder{Prefixes: prefixes, Now: time.Now}
}

type frame struct {
	Type string `json:"type"`

	ConversationID string          `json:"conversationId"`
	Message        json.RawMessage `json:"message"`
	Contact        *Contact        `json:"contact"`

	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Decode classifies one frame. It never fails: undecodable input is
// reported as Malformed.
func (d *Decoder) Decode(raw string) Event {
	text := d.strip(raw)

	var f frame
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return Malformed{Raw: raw, Err: err}
	}

	switch f.Type {
	case TypeNewMessage:
		return d.decodeNewMessage(raw, f)
	case TypeStatusUpdate:
		if f.MessageID == "" {
			return Malformed{Raw: raw, Err: errors.New("status update without messageId")}
		}
		st, err := conversation.ParseStatus(f.Status)
		if err != nil {
			return Malformed{Raw: raw, Err: err}
		}
		return StatusUpdate{MessageID: f.MessageID, Status: st}
	default:
		return Ignored{Type: f.Type}
	}
}

func (d *Decoder) decodeNewMessage(raw string, f frame) Event {
	if len(f.Message) == 0 || string(f.Message) == "null" {
		return Malformed{Raw: raw, Err: errMissingMessage}
	}
	var wm Message
	if err := json.Unmarshal(f.Message, &wm); err != nil {
		return Malformed{Raw: raw, Err: fmt.Errorf("message: %w", err)}
	}
	msg, err := wm.ToMessage()
	if err != nil {
		return Malformed{Raw: raw, Err: err}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = d.now()
	}

	ev := NewMessage{ConversationID: f.ConversationID, Message: msg}
	if ev.ConversationID == "" {
		ev.ConversationID = wm.ChatID
	}
	if f.Contact != nil {
		ev.Counterpart = &Counterpart{
			Name:    f.Contact.Name,
			Address: f.Contact.Phone,
			Avatar:  f.Contact.AvatarURL,
		}
	}
	return ev
}

func (d *Decoder) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Decoder) strip(raw string) string {
	text := strings.TrimSpace(raw)
	for _, p := range d.Prefixes {
		if p != "" && strings.HasPrefix(text, p) {
			return strings.TrimLeft(text[len(p):], " \t\r\n")
		}
	}
	return text
}

type sendNotification struct {
	Type           string  `json:"type"`
	ConversationID string  `json:"conversationId"`
	Message        Message `json:"message"`
}

// EncodeSendNotification renders the send_message frame that announces a
// confirmed local send on the real-time channel.
func EncodeSendNotification(conversationID string, m conversation.Message) (string, error) {
	b, err := json.Marshal(sendNotification{
		Type:           TypeSendMessage,
		ConversationID: conversationID,
		Message:        FromMessage(m),
	})
	if err != nil {
		return "", fmt.Errorf("encode send notification: %w", err)
	}
	return string(b), nil
}
