package api

import (
	"time"

	"github.com/matheus3301/wppdesk/internal/chat"
	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/outbox"
	"github.com/matheus3301/wppdesk/internal/store"
)

// Summary is the API rendering of conversation.Summary.
type Summary struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Address         string `json:"address,omitempty"`
	Avatar          string `json:"avatar,omitempty"`
	Preview         string `json:"preview,omitempty"`
	PreviewAtUnixMs int64  `json:"preview_at_unix_ms,omitempty"`
	Unread          int    `json:"unread"`
}

// Param is one template placeholder value. Params travel as a list so
// their order survives the round trip through google.protobuf.Struct.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is the API rendering of conversation.Message.
type Message struct {
	ID              string  `json:"id"`
	Provisional     bool    `json:"provisional,omitempty"`
	Body            string  `json:"body"`
	Role            string  `json:"role"`
	TimestampUnixMs int64   `json:"timestamp_unix_ms"`
	Status          string  `json:"status"`
	Kind            string  `json:"kind"`
	TemplateName    string  `json:"template_name,omitempty"`
	Params          []Param `json:"params,omitempty"`
}

// PendingSend is an in-flight delivery.
type PendingSend struct {
	ConversationID  string `json:"conversation_id"`
	ProvisionalID   string `json:"provisional_id"`
	Body            string `json:"body,omitempty"`
	TemplateName    string `json:"template_name,omitempty"`
	StartedAtUnixMs int64  `json:"started_at_unix_ms"`
}

// FailedSend is a journaled send the delivery API rejected.
type FailedSend struct {
	ConversationID  string `json:"conversation_id"`
	LocalID         string `json:"local_id"`
	Body            string `json:"body,omitempty"`
	TemplateName    string `json:"template_name,omitempty"`
	Error           string `json:"error"`
	UpdatedAtUnixMs int64  `json:"updated_at_unix_ms"`
}

// Snapshot is the response of GetSnapshot.
type Snapshot struct {
	Profile                 string        `json:"profile"`
	Connectivity            string        `json:"connectivity"`
	ConnectivitySinceUnixMs int64         `json:"connectivity_since_unix_ms,omitempty"`
	InitError               string        `json:"init_error,omitempty"`
	Source                  string        `json:"source,omitempty"`
	ActiveID                string        `json:"active_id,omitempty"`
	Summaries               []Summary     `json:"summaries"`
	Transcript              []Message     `json:"transcript"`
	Pending                 []PendingSend `json:"pending,omitempty"`
	RecentFailures          []FailedSend  `json:"recent_failures,omitempty"`
	CachedConversations     int64         `json:"cached_conversations"`
	CachedMessages          int64         `json:"cached_messages"`
	CachedTemplates         int64         `json:"cached_templates"`
	UptimeMs                int64         `json:"uptime_ms"`
}

// SearchHit is one SearchMessages result.
type SearchHit struct {
	ConversationID string  `json:"conversation_id"`
	Message        Message `json:"message"`
	Snippet        string  `json:"snippet"`
}

// Request and response bodies.
type (
	SelectRequest struct {
		ConversationID string `json:"conversation_id"`
	}
	SendTextRequest struct {
		ConversationID string `json:"conversation_id"`
		Body           string `json:"body"`
	}
	SendTemplateRequest struct {
		ConversationID string  `json:"conversation_id"`
		Name           string  `json:"name"`
		Params         []Param `json:"params,omitempty"`
	}
	SendResponse struct {
		Message Message `json:"message"`
	}
	SearchRequest struct {
		Query          string `json:"query"`
		ConversationID string `json:"conversation_id,omitempty"`
		Limit          int    `json:"limit,omitempty"`
	}
	SearchResponse struct {
		Results []SearchHit `json:"results"`
	}
	ListTemplatesRequest struct {
		Status string `json:"status,omitempty"`
	}
	TemplateList struct {
		Templates []store.Template `json:"templates"`
	}
	ImportTemplatesRequest struct {
		Templates []store.Template `json:"templates"`
	}
	ImportTemplatesResponse struct {
		Imported int `json:"imported"`
	}
	WatchRequest struct {
		// Namespace filters events by kind prefix ("message."); empty means all.
		Namespace string `json:"namespace,omitempty"`
	}
	Empty struct{}
)

// EventEnvelope is one WatchEvents item.
type EventEnvelope struct {
	EventID          string         `json:"event_id"`
	Profile          string         `json:"profile"`
	Kind             string         `json:"kind"`
	OccurredAtUnixMs int64          `json:"occurred_at_unix_ms"`
	Payload          map[string]any `json:"payload,omitempty"`
}

func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// SummaryFrom converts a domain summary.
func SummaryFrom(s conversation.Summary) Summary {
	return Summary{
		ID:              s.ID,
		Name:            s.Name,
		Address:         s.Address,
		Avatar:          s.Avatar,
		Preview:         s.Preview,
		PreviewAtUnixMs: unixMs(s.PreviewAt),
		Unread:          s.Unread,
	}
}

// Domain converts back to a conversation.Summary.
func (s Summary) Domain() conversation.Summary {
	return conversation.Summary{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Avatar:    s.Avatar,
		Preview:   s.Preview,
		PreviewAt: fromUnixMs(s.PreviewAtUnixMs),
		Unread:    s.Unread,
	}
}

// MessageFrom converts a domain message.
func MessageFrom(m conversation.Message) Message {
	return Message{
		ID:              m.ID.String(),
		Provisional:     m.ID.IsProvisional(),
		Body:            m.Body,
		Role:            string(m.Role),
		TimestampUnixMs: unixMs(m.Timestamp),
		Status:          string(m.Status),
		Kind:            string(m.Kind),
		TemplateName:    m.TemplateName,
		Params:          ParamsFrom(m.Params),
	}
}

// Domain converts back to a conversation.Message.
func (m Message) Domain() conversation.Message {
	id := conversation.Confirmed(m.ID)
	if m.Provisional {
		id = conversation.Provisional(m.ID)
	}
	return conversation.Message{
		ID:           id,
		Body:         m.Body,
		Role:         conversation.Role(m.Role),
		Timestamp:    fromUnixMs(m.TimestampUnixMs),
		Status:       conversation.Status(m.Status),
		Kind:         conversation.Kind(m.Kind),
		TemplateName: m.TemplateName,
		Params:       DomainParams(m.Params),
	}
}

// ParamsFrom converts ordered domain params.
func ParamsFrom(p conversation.Params) []Param {
	if len(p) == 0 {
		return nil
	}
	out := make([]Param, len(p))
	for i, kv := range p {
		out[i] = Param{Name: kv.Name, Value: kv.Value}
	}
	return out
}

// DomainParams converts API params to conversation.Params.
func DomainParams(p []Param) conversation.Params {
	if len(p) == 0 {
		return nil
	}
	out := make(conversation.Params, len(p))
	for i, kv := range p {
		out[i] = conversation.Param{Name: kv.Name, Value: kv.Value}
	}
	return out
}

func snapshotFrom(profile string, s chat.Snapshot) Snapshot {
	out := Snapshot{
		Profile:                 profile,
		Connectivity:            string(s.Connectivity),
		ConnectivitySinceUnixMs: unixMs(s.ConnectivitySince),
		Source:                  string(s.Source),
		ActiveID:                s.ActiveID,
		Summaries:               make([]Summary, 0, len(s.Summaries)),
		Transcript:              make([]Message, 0, len(s.Transcript)),
	}
	if s.InitError != nil {
		out.InitError = s.InitError.Error()
	}
	for _, sum := range s.Summaries {
		out.Summaries = append(out.Summaries, SummaryFrom(sum))
	}
	for _, m := range s.Transcript {
		out.Transcript = append(out.Transcript, MessageFrom(m))
	}
	for _, p := range s.Pending {
		out.Pending = append(out.Pending, pendingFrom(p))
	}
	return out
}

func pendingFrom(p outbox.PendingSend) PendingSend {
	return PendingSend{
		ConversationID:  p.ConversationID,
		ProvisionalID:   p.ProvisionalID.String(),
		Body:            p.Request.Body,
		TemplateName:    p.Request.TemplateName,
		StartedAtUnixMs: unixMs(p.StartedAt),
	}
}

func failedFrom(e store.OutboxEntry) FailedSend {
	return FailedSend{
		ConversationID:  e.ConversationID,
		LocalID:         e.LocalID,
		Body:            e.Body,
		TemplateName:    e.TemplateName,
		Error:           e.ErrorMessage,
		UpdatedAtUnixMs: e.UpdatedAt,
	}
}
