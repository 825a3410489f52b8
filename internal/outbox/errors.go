package outbox

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBody is returned for a text send with no visible content.
	ErrEmptyBody = errors.New("message body is empty")
	// ErrUnknownConversation is returned when the target has no summary.
	ErrUnknownConversation = errors.New("unknown conversation")
	// ErrUnknownTemplate is returned when the catalog has no such template.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrTemplateNotApproved is returned for pending or rejected templates.
	ErrTemplateNotApproved = errors.New("template is not approved")
	// ErrTemplateParams is returned when parameters do not match the
	// template's declared variables.
	ErrTemplateParams = errors.New("template parameters do not match")
	// ErrNoConfirmedID is returned when the delivery API accepts a send
	// without assigning it an id.
	ErrNoConfirmedID = errors.New("delivery returned no message id")
)

// SendError reports a delivery failure. The optimistic message has already
// been rolled back when it is returned.
type SendError struct {
	ConversationID string
	LocalID        string
	Err            error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s failed: %v", e.ConversationID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
