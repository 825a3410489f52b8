package store

import "github.com/matheus3301/wppdesk/internal/conversation"

// Journal statuses of an outbox entry.
const (
	OutboxQueued = "queued"
	OutboxSent   = "sent"
	OutboxFailed = "failed"
)

// OutboxEntry is one journaled send attempt.
type OutboxEntry struct {
	ID             int64
	LocalID        string
	ConversationID string
	Address        string
	Body           string
	Kind           conversation.Kind
	TemplateName   string
	Params         conversation.Params
	Status         string
	ErrorMessage   string
	ServerMsgID    string
	CreatedAt      int64
	UpdatedAt      int64
}

// Template approval statuses.
const (
	TemplateApproved = "approved"
	TemplatePending  = "pending"
	TemplateRejected = "rejected"
)

// Template is a pre-approved message template.
type Template struct {
	Name      string   `yaml:"name" json:"name"`
	Language  string   `yaml:"language" json:"language"`
	Category  string   `yaml:"category" json:"category"`
	Status    string   `yaml:"status" json:"status"`
	Content   string   `yaml:"content" json:"content"`
	Variables []string `yaml:"variables" json:"variables"`
}

// Approved reports whether the template may be sent.
func (t Template) Approved() bool {
	return t.Status == TemplateApproved
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	ConversationID string
	Message        conversation.Message
	Snippet        string
}
