package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread shows the active transcript and a composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	onSend   func(text string)
	now      func() time.Time
}

// NewMessageThread creates the transcript view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Reply (i to focus, Esc to leave) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSend == nil {
			return
		}
		if text := composer.GetText(); strings.TrimSpace(text) != "" {
			mt.onSend(text)
			composer.SetText("")
		}
	})

	return mt
}

// Name implements ui.Component.
func (mt *MessageThread) Name() string { return PageMessages }

// SetOnSend sets the composer submit callback.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// Update shows transcript for conversation s. Messages arrive oldest first.
func (mt *MessageThread) Update(s api.Summary, transcript []api.Message) {
	title := displayName(s)
	if s.Address != "" && s.Address != title {
		title += " · " + s.Address
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s (%d) ", tview.Escape(singleLine(title)), len(transcript)))

	mt.messages.Clear()
	_, _ = fmt.Fprint(mt.messages, mt.render(s, transcript))
	mt.messages.ScrollToEnd()
}

func (mt *MessageThread) render(s api.Summary, transcript []api.Message) string {
	if len(transcript) == 0 {
		return "\n  [::d]No messages yet.[-:-:-]"
	}
	now := mt.now()
	self := ui.ColorName(mt.theme.SelfColor)
	peer := ui.ColorName(mt.theme.CounterpartColor)
	pending := ui.ColorName(mt.theme.PendingColor)

	var b strings.Builder
	for _, m := range transcript {
		author, color := displayName(s), peer
		if m.Role == "self" {
			author, color = "You", self
		}
		body := tview.Escape(sanitizeForTerminal(messageText(m)))
		if m.Provisional {
			body = fmt.Sprintf("[%s]%s[-]", pending, body)
		}
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]", color, tview.Escape(singleLine(author)), formatTimestamp(m.TimestampUnixMs, now))
		if m.Role == "self" {
			fmt.Fprintf(&b, " %s", statusIcon(m))
		}
		fmt.Fprintf(&b, "\n%s\n\n", body)
	}
	return b.String()
}

// Messages returns the transcript pane, for focus management.
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the input field, for focus management.
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
