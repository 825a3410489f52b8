package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchView runs full-text queries over the message cache.
type SearchView struct {
	*tview.Flex
	theme    *ui.Theme
	input    *tview.InputField
	results  *tview.Table
	onQuery  func(query string)
	onSelect func(hit api.SearchHit)
	names    func(conversationID string) string
	data     []api.SearchHit
}

// NewSearchView creates a new search view. names maps conversation ids to
// display names; nil shows ids.
func NewSearchView(theme *ui.Theme, names func(string) string) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	if names == nil {
		names = func(id string) string { return id }
	}
	sv := &SearchView{
		Flex:    flex,
		theme:   theme,
		input:   input,
		results: results,
		names:   names,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil && sv.input.GetText() != "" {
			sv.onQuery(sv.input.GetText())
		}
	})
	results.SetSelectedFunc(func(row, _ int) {
		if hit, ok := sv.HitAt(row); ok && sv.onSelect != nil {
			sv.onSelect(hit)
		}
	})
	sv.Update(nil)
	return sv
}

// Name implements ui.Component.
func (sv *SearchView) Name() string { return PageSearch }

// SetOnQuery sets the callback for a submitted query.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// SetOnSelect sets the callback for Enter on a result.
func (sv *SearchView) SetOnSelect(fn func(hit api.SearchHit)) {
	sv.onSelect = fn
}

// SetQuery fills the input without running the query.
func (sv *SearchView) SetQuery(q string) {
	sv.input.SetText(q)
}

// Update shows hits, best match first.
func (sv *SearchView) Update(hits []api.SearchHit) {
	sv.data = hits
	sv.results.Clear()

	for col, h := range []string{" CONVERSATION", " SNIPPET", " TIME"} {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	now := time.Now()
	for i, h := range hits {
		row := i + 1
		snippet := h.Snippet
		if snippet == "" {
			snippet = messageText(h.Message)
		}
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(singleLine(sv.names(h.ConversationID)))).SetMaxWidth(25).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(singleLine(snippet))).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(h.Message.TimestampUnixMs, now)).SetMaxWidth(12).SetTextColor(sv.theme.FgColor))
	}
	sv.results.SetTitle(fmt.Sprintf(" Results (%d) ", len(hits)))
}

// HitAt returns the hit on table row n (row 0 is the header).
func (sv *SearchView) HitAt(n int) (api.SearchHit, bool) {
	if n < 1 || n > len(sv.data) {
		return api.SearchHit{}, false
	}
	return sv.data[n-1], true
}

// Input returns the query field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
