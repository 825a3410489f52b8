package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	theme    *ui.Theme
	rows     []api.Summary
	activeID string
	filter   string
	total    int
	now      func() time.Time
}

// NewConversationList creates an empty conversation list.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	cl := &ConversationList{Table: table, theme: theme, now: time.Now}
	cl.render()
	return cl
}

// Name implements ui.Component.
func (cl *ConversationList) Name() string { return PageConversations }

// Update shows rows, the summaries left after filtering, out of total.
// The cursor stays on the same conversation when it is still listed.
func (cl *ConversationList) Update(rows []api.Summary, activeID, filter string, total int) {
	keep := cl.SelectedID()
	cl.rows = rows
	cl.activeID = activeID
	cl.filter = filter
	cl.total = total
	cl.render()

	target := keep
	if target == "" {
		target = activeID
	}
	for i, s := range rows {
		if s.ID == target {
			cl.Select(i+1, 0)
			return
		}
	}
	if len(rows) > 0 {
		cl.Select(1, 0)
	}
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" UNREAD", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	now := cl.now()
	for i, s := range cl.rows {
		row := i + 1
		marker := "  "
		if s.ID == cl.activeID {
			marker = "▶ "
		}
		fg := cl.theme.FgColor
		unread := ""
		if s.Unread > 0 {
			fg = cl.theme.UnreadColor
			unread = fmt.Sprintf("%d", s.Unread)
		}

		cl.SetCell(row, 0, tview.NewTableCell(marker+tview.Escape(singleLine(displayName(s)))).SetExpansion(1).SetTextColor(fg))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(singleLine(s.Preview))).SetExpansion(2).SetMaxWidth(60).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(s.PreviewAtUnixMs, now)).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 3, tview.NewTableCell(unread).SetTextColor(cl.theme.UnreadColor).SetAlign(tview.AlignRight))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) /%s ", len(cl.rows), cl.total, tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.rows)))
	}
}

// SelectedID returns the id under the cursor, or empty.
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.IDAt(row)
}

// IDAt returns the id shown on table row n (1-based, row 0 is the header).
func (cl *ConversationList) IDAt(n int) string {
	if n < 1 || n > len(cl.rows) {
		return ""
	}
	return cl.rows[n-1].ID
}
