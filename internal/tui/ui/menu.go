package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

const menuRows = 5

// Menu displays keyboard shortcut hints in columns of up to five rows.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{TextView: tv, theme: theme}
}

// Update renders hints column by column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, m.layout(hints))
}

func (m *Menu) layout(hints []MenuHint) string {
	if len(hints) == 0 {
		return ""
	}
	keyColor := ColorName(m.theme.MenuKeyColor)
	numColor := ColorName(m.theme.NumericKeyColor)

	cols := (len(hints) + menuRows - 1) / menuRows
	width := make([]int, cols)
	for i, h := range hints {
		if n := len(h.Key) + len(h.Description) + 3; n > width[i/menuRows] {
			width[i/menuRows] = n
		}
	}

	var b strings.Builder
	for row := 0; row < menuRows && row < len(hints); row++ {
		for col := 0; col < cols; col++ {
			i := col*menuRows + row
			if i >= len(hints) {
				break
			}
			h := hints[i]
			kc := keyColor
			if h.Numeric {
				kc = numColor
			}
			pad := width[col] - len(h.Key) - len(h.Description) - 3
			fmt.Fprintf(&b, "[%s::b]<%s>[-:-:-] %s%s  ", kc, h.Key, h.Description, strings.Repeat(" ", pad))
		}
		b.WriteString("\n")
	}
	return b.String()
}
