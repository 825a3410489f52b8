package views

import (
	"time"

	"github.com/matheus3301/wppdesk/internal/api"
)

// Page names.
const (
	PageConversations = "conversations"
	PageMessages      = "messages"
	PageDetails       = "details"
	PageSearch        = "search"
	PageHelp          = "help"
)

// formatTimestamp renders ms as a clock time for today and a date otherwise.
func formatTimestamp(ms int64, now time.Time) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms).In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 02")
	}
	return t.Format("2006-01-02")
}

// statusIcon is the delivery marker for a message the agent sent.
func statusIcon(m api.Message) string {
	if m.Provisional {
		return "…"
	}
	switch m.Status {
	case "pending":
		return "…"
	case "sent":
		return "✓"
	case "delivered":
		return "✓✓"
	case "read":
		return "[aqua]✓✓[-]"
	}
	return ""
}

// displayName returns the best label for a conversation.
func displayName(s api.Summary) string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Address != "":
		return s.Address
	default:
		return s.ID
	}
}

// messageText is the body shown for m; template sends without a rendered
// body show their name.
func messageText(m api.Message) string {
	if m.Body == "" && m.TemplateName != "" {
		return "Template: " + m.TemplateName
	}
	return m.Body
}
