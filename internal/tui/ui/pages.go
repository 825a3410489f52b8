package ui

import "github.com/rivo/tview"

// Pages is a stack of Components on top of tview.Pages. The bottom page
// is the root and is never popped.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// Add registers c under its name, hidden.
func (p *Pages) Add(c Component) {
	p.AddPage(c.Name(), c, true, false)
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the current page is a no-op;
// pushing a page already lower in the stack unwinds to it.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	for i, n := range p.stack {
		if n == name {
			p.unwind(i + 1)
			return
		}
	}
	if len(p.stack) > 0 {
		p.HidePage(p.stack[len(p.stack)-1])
	}
	p.stack = append(p.stack, name)
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

// Pop removes the top page and returns its name. The root page stays; Pop
// returns empty when only the root is left.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.unwind(len(p.stack) - 1)
	return top
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the page stack, root first.
func (p *Pages) Stack() []string {
	s := make([]string, len(p.stack))
	copy(s, p.stack)
	return s
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Reset clears the stack and shows only name.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

func (p *Pages) unwind(depth int) {
	for len(p.stack) > depth {
		p.HidePage(p.stack[len(p.stack)-1])
		p.stack = p.stack[:len(p.stack)-1]
	}
	if cur := p.Current(); cur != "" {
		p.ShowPage(cur)
		p.SendToFront(cur)
	}
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
