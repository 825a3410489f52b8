// Package wire translates real-time frames into typed events and encodes the
// outbound send notification.
package wire

import "github.com/matheus3301/wppdesk/internal/conversation"

// Event is one decoded frame. The set of implementations is closed:
// NewMessage, StatusUpdate, Ignored and Malformed.
type Event interface {
	isEvent()
}

// Counterpart carries the contact details a new_message frame may include.
type Counterpart struct {
	Name    string
	Address string
	Avatar  string
}

// NewMessage is an inbound message. ConversationID is empty when the frame
// did not name a conversation.
type NewMessage struct {
	ConversationID string
	Message        conversation.Message
	Counterpart    *Counterpart
}

// StatusUpdate moves a confirmed message to a new delivery status.
type StatusUpdate struct {
	MessageID string
	Status    conversation.Status
}

// Ignored is a well-formed frame of a type the engine does not handle.
type Ignored struct {
	Type string
}

// Malformed is a frame that could not be decoded.
type Malformed struct {
	Raw string
	Err error
}

func (NewMessage) isEvent()   {}
func (StatusUpdate) isEvent() {}
func (Ignored) isEvent()      {}
func (Malformed) isEvent()    {}

// Frame types.
const (
	TypeNewMessage    = "new_message"
	TypeStatusUpdate  = "message_status_update"
	TypeSendMessage   = "send_message"
	DefaultEchoPrefix = "Echo:"
)
