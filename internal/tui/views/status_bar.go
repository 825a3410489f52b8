package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar is the bottom line: profile, link state, pending sends, clock.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme
	snap  api.Snapshot
	now   func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme, now: time.Now}
}

// Update stores s and redraws.
func (sb *StatusBar) Update(s api.Snapshot) {
	sb.snap = s
	sb.Tick()
}

// Tick redraws with the current time.
func (sb *StatusBar) Tick() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, sb.line())
}

func (sb *StatusBar) line() string {
	s := sb.snap
	conn := s.Connectivity
	if conn == "" {
		conn = "UNKNOWN"
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]●[-] %s",
		tview.Escape(s.Profile), ui.ColorName(sb.theme.Connectivity(s.Connectivity)), conn)
	if s.InitError != "" {
		line += " | [" + ui.ColorName(sb.theme.FlashErrColor) + "]read-only[-]"
	}
	if n := len(s.Pending); n > 0 {
		line += fmt.Sprintf(" | sending %d", n)
	}
	return line + " | " + sb.now().Format("15:04")
}
