package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo shows the counterpart's details and a click-to-chat QR
// code for their address.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates the details view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{TextView: tv, theme: theme}
}

// Name implements ui.Component.
func (ci *ConversationInfo) Name() string { return PageDetails }

// Update renders s; transcript is the loaded history of s, if any.
func (ci *ConversationInfo) Update(s api.Summary, transcript []api.Message) {
	ci.Clear()
	ci.SetTitle(fmt.Sprintf(" %s ", tview.Escape(singleLine(displayName(s)))))
	_, _ = fmt.Fprint(ci, ci.render(s, transcript))
}

func (ci *ConversationInfo) render(s api.Summary, transcript []api.Message) string {
	fg := ui.ColorName(ci.theme.FgColor)
	ct := ui.ColorName(ci.theme.CounterColor)

	var lastSeen int64
	var mine, theirs int
	for _, m := range transcript {
		if m.Role == "self" {
			mine++
			continue
		}
		theirs++
		if m.TimestampUnixMs > lastSeen {
			lastSeen = m.TimestampUnixMs
		}
	}
	now := time.Now()

	field := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return fmt.Sprintf(" [%s::b]%-13s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, tview.Escape(singleLine(value)))
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(field("Name", s.Name))
	b.WriteString(field("Address", s.Address))
	b.WriteString(field("ID", s.ID))
	b.WriteString(field("Unread", fmt.Sprintf("%d", s.Unread)))
	b.WriteString(field("Last message", s.Preview))
	b.WriteString(field("Last active", formatTimestamp(s.PreviewAtUnixMs, now)))
	b.WriteString(field("Last inbound", formatTimestamp(lastSeen, now)))
	b.WriteString(field("Loaded", fmt.Sprintf("%d in / %d out", theirs, mine)))
	if s.Avatar != "" {
		b.WriteString(field("Avatar", s.Avatar))
	}

	link := ChatLink(s.Address)
	if link == "" {
		return b.String()
	}
	qr, err := RenderQR(link, "  ")
	if err != nil {
		fmt.Fprintf(&b, "\n [::d]QR unavailable: %s[-:-:-]\n", tview.Escape(err.Error()))
		return b.String()
	}
	fmt.Fprintf(&b, "\n [::d]%s[-:-:-]\n\n%s", link, qr)
	return b.String()
}
