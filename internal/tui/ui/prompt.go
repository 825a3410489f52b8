package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates the type of prompt.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

// Prompt is a command/filter input bar. In filter mode every keystroke is
// reported so the list can narrow as the user types.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	onSubmit func(mode PromptMode, text string)
	onChange func(text string)
	onCancel func(mode PromptMode)

	history []string
	cursor  int
}

const historySize = 50

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{InputField: input, theme: theme}

	input.SetChangedFunc(func(text string) {
		if p.mode == PromptFilter && p.onChange != nil {
			p.onChange(text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := p.GetText()
			if p.mode == PromptCommand {
				p.remember(text)
			}
			if p.onSubmit != nil && (text != "" || p.mode == PromptFilter) {
				p.onSubmit(p.mode, text)
			}
		case tcell.KeyEscape:
			if p.onCancel != nil {
				p.onCancel(p.mode)
			}
		}
	})
	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if p.mode != PromptCommand {
			return ev
		}
		switch ev.Key() {
		case tcell.KeyUp:
			p.SetText(p.Recall(-1))
			return nil
		case tcell.KeyDown:
			p.SetText(p.Recall(1))
			return nil
		}
		return ev
	})

	return p
}

// SetOnSubmit sets the callback for Enter.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnChange sets the callback for edits in filter mode.
func (p *Prompt) SetOnChange(fn func(text string)) {
	p.onChange = fn
}

// SetOnCancel sets the callback for Escape.
func (p *Prompt) SetOnCancel(fn func(mode PromptMode)) {
	p.onCancel = fn
}

// Activate prepares the prompt for mode. Filter mode starts from text so
// an active filter can be edited.
func (p *Prompt) Activate(mode PromptMode, text string) {
	p.mode = mode
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter ")
	}
	p.cursor = len(p.history)
	p.SetText(text)
}

func (p *Prompt) remember(text string) {
	if text == "" || (len(p.history) > 0 && p.history[len(p.history)-1] == text) {
		return
	}
	p.history = append(p.history, text)
	if len(p.history) > historySize {
		p.history = p.history[len(p.history)-historySize:]
	}
}

// Recall moves through command history, dir -1 for older and 1 for newer,
// and returns the entry under the cursor. Moving past the newest entry
// yields an empty line.
func (p *Prompt) Recall(dir int) string {
	p.cursor += dir
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(p.history) {
		p.cursor = len(p.history)
		return ""
	}
	return p.history[p.cursor]
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
