package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color

	ConnectedColor    tcell.Color
	ConnectingColor   tcell.Color
	DisconnectedColor tcell.Color
	SelfColor         tcell.Color
	CounterpartColor  tcell.Color
	PendingColor      tcell.Color
	UnreadColor       tcell.Color
}

// DefaultTheme returns the dark console theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorOrange,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		NumericKeyColor:   tcell.ColorFuchsia,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,

		ConnectedColor:    tcell.ColorLimeGreen,
		ConnectingColor:   tcell.ColorGold,
		DisconnectedColor: tcell.ColorOrangeRed,
		SelfColor:         tcell.ColorLightSkyBlue,
		CounterpartColor:  tcell.ColorPapayaWhip,
		PendingColor:      tcell.ColorGray,
		UnreadColor:       tcell.ColorOrange,
	}
}

// Connectivity returns the color for a connectivity state name.
func (t *Theme) Connectivity(state string) tcell.Color {
	switch state {
	case "CONNECTED":
		return t.ConnectedColor
	case "CONNECTING":
		return t.ConnectingColor
	default:
		return t.DisconnectedColor
	}
}

// ColorName returns c in a form usable inside tview color tags.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
