package ui

import (
	"fmt"

	"github.com/matheus3301/wppdesk/internal/tui/model"
	"github.com/rivo/tview"
)

// FlashBar displays the current flash notification.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{TextView: tv, theme: theme}
}

// Update renders msg; nil clears the bar.
func (fb *FlashBar) Update(msg *model.FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}

	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case model.FlashWarn:
		color = fb.theme.FlashWarnColor
	case model.FlashErr:
		color = fb.theme.FlashErrColor
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", ColorName(color), tview.Escape(msg.Text))
}
