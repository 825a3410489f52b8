package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

// DeliveryRequest is one outbound message.
type DeliveryRequest struct {
	ConversationID string              `json:"-"`
	Address        string              `json:"address"`
	Body           string              `json:"body"`
	Kind           conversation.Kind   `json:"kind"`
	TemplateName   string              `json:"templateName,omitempty"`
	Parameters     conversation.Params `json:"parameters,omitempty"`
}

// Delivery is the backend's acknowledgement of a delivered message.
type Delivery struct {
	ID     string
	Status conversation.Status
}

type deliveryData struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// Deliver posts a message for delivery and returns the confirmed id.
func (c *Client) Deliver(ctx context.Context, req DeliveryRequest) (Delivery, error) {
	var data deliveryData
	path := "/chats/" + url.PathEscape(req.ConversationID) + "/messages"
	if err := c.do(ctx, "deliver", http.MethodPost, path, nil, req, &data); err != nil {
		return Delivery{}, err
	}
	if data.ID == "" {
		return Delivery{}, &APIError{Op: "deliver", Reason: "response carried no message id"}
	}
	d := Delivery{ID: data.ID, Status: conversation.StatusSent}
	if st, err := conversation.ParseStatus(data.Status); err == nil {
		d.Status = st
	}
	return d, nil
}
