package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/wppdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView lists keys and commands.
type HelpView struct {
	*tview.TextView
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	_, _ = fmt.Fprint(tv, helpText(ui.ColorName(theme.MenuKeyColor)))
	return &HelpView{TextView: tv}
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return PageHelp }

type helpEntry struct{ key, text string }

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Global", []helpEntry{
		{":", "Command mode"},
		{"?", "Help"},
		{"Esc", "Back"},
		{"q", "Back, or quit from the list"},
		{"Ctrl-C", "Quit"},
	}},
	{"Conversations", []helpEntry{
		{"Enter", "Open conversation"},
		{"/", "Filter by name or phone"},
		{"0", "Clear filter"},
		{"1-9", "Open Nth conversation"},
		{"r", "Refresh"},
	}},
	{"Messages", []helpEntry{
		{"i", "Reply"},
		{"Enter", "Send (in composer)"},
		{"d", "Details and click-to-chat QR"},
		{"s", "Search"},
	}},
	{"Commands", []helpEntry{
		{":open <name|id>", "Open a conversation"},
		{":search <text>", "Search cached messages"},
		{":template <name> k=v ...", "Send an approved template"},
		{":filter <text>", "Filter the list"},
		{":refresh", "Reload the snapshot"},
		{":help, :h", "This page"},
		{":quit, :q", "Quit"},
	}},
}

func helpText(keyColor string) string {
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, e := range s.entries {
			fmt.Fprintf(&b, "  [%s]%-26s[-:-:-] %s\n", keyColor, tview.Escape(e.key), e.text)
		}
	}
	return b.String()
}
