package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays the product mark in the header.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignRight)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 0, 1)

	l := &Logo{TextView: tv, theme: theme}
	title := ColorName(theme.TitleColor)
	_, _ = fmt.Fprintf(l,
		"[%s::b]┬ ┬┌─┐┌─┐┌┬┐┌─┐┌─┐┬┌─[-:-:-]\n"+
			"[%s::b]│││├─┘├─┘ ││├┤ └─┐├┴┐[-:-:-]\n"+
			"[%s::b]└┴┘┴  ┴  ─┴┘└─┘└─┘┴ ┴[-:-:-]\n"+
			"[%s]live chat console[-:-:-]",
		title, title, title, ColorName(theme.FgColor),
	)
	return l
}
