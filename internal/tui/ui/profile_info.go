package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// ProfileData is what the header shows about the daemon.
type ProfileData struct {
	Profile       string
	Connectivity  string
	Since         time.Time
	InitError     string
	Source        string
	Conversations int
	Cached        int64
	Pending       int
	Uptime        time.Duration
}

// ProfileInfo displays daemon metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{TextView: tv, theme: theme}
}

// Update renders d.
func (pi *ProfileInfo) Update(d ProfileData) {
	pi.Clear()

	fg := ColorName(pi.theme.FgColor)
	ct := ColorName(pi.theme.CounterColor)
	conn := ColorName(pi.theme.Connectivity(d.Connectivity))

	link := d.Connectivity
	if link == "" {
		link = "UNKNOWN"
	}
	if !d.Since.IsZero() {
		link += " " + FormatDuration(time.Since(d.Since))
	}
	source := d.Source
	if d.InitError != "" {
		source = "error: " + d.InitError
	}
	if source == "" {
		source = "-"
	}

	_, _ = fmt.Fprintf(pi,
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Link:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Source:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-] [%s](%d cached msgs)[-]\n"+
			"[%s::b]Pending:[-:-:-] [%s]%d[-]\n"+
			"[%s::b]Uptime:[-:-:-]  [%s]%s[-]",
		fg, ct, tview.Escape(d.Profile),
		fg, conn, link,
		fg, ct, tview.Escape(source),
		fg, ct, d.Conversations, fg, d.Cached,
		fg, ct, d.Pending,
		fg, ct, FormatDuration(d.Uptime),
	)
}

// FormatDuration renders d as "1h2m", "5m" or "12s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
