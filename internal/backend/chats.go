package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/wire"
)

// Chat is the JSON shape of a conversation summary.
type Chat struct {
	ID          string `json:"id"`
	ContactName string `json:"contact_name"`
	PhoneNumber string `json:"phone_number"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	LastMessage string `json:"last_message"`
	Timestamp   string `json:"timestamp"`
	UnreadCount int    `json:"unread_count"`
}

// ToSummary converts the wire shape. Unparseable timestamps are dropped.
func (c Chat) ToSummary() conversation.Summary {
	at, _ := wire.ParseTimestamp(c.Timestamp)
	return conversation.Summary{
		ID:        c.ID,
		Name:      c.ContactName,
		Address:   c.PhoneNumber,
		Avatar:    c.AvatarURL,
		Preview:   c.LastMessage,
		PreviewAt: at,
		Unread:    c.UnreadCount,
	}
}

// ListSummaries fetches the initial conversation list.
func (c *Client) ListSummaries(ctx context.Context) ([]conversation.Summary, error) {
	var chats []Chat
	if err := c.do(ctx, "list chats", http.MethodGet, "/chats", nil, nil, &chats); err != nil {
		return nil, err
	}
	out := make([]conversation.Summary, 0, len(chats))
	for _, ch := range chats {
		out = append(out, ch.ToSummary())
	}
	return out, nil
}

// FetchHistory returns the messages of one conversation in backend order.
func (c *Client) FetchHistory(ctx context.Context, conversationID, address string) ([]conversation.Message, error) {
	var q url.Values
	if address != "" {
		q = url.Values{"address": {address}}
	}
	var msgs []wire.Message
	path := "/chats/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, "fetch history", http.MethodGet, path, q, nil, &msgs); err != nil {
		return nil, err
	}
	out := make([]conversation.Message, 0, len(msgs))
	for _, wm := range msgs {
		m, err := wm.ToMessage()
		if err != nil {
			return nil, fmt.Errorf("fetch history: message %q: %w", wm.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}
