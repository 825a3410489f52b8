// Package keys maps key events to console actions, per page.
package keys

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
)

// Action is one keybinding.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string // shown in the menu, e.g. "Enter" or "/"
	Description string
	Handler     func()
	Visible     bool
	Numeric     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

func (a *Action) hint() ui.MenuHint {
	label := a.Label
	if label == "" && a.Key == tcell.KeyRune {
		label = string(a.Rune)
	}
	return ui.MenuHint{Key: label, Description: a.Description, Numeric: a.Numeric}
}

// Registry holds keybindings in registration order. Page bindings shadow
// global ones.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// AddView registers a binding active on one page.
func (r *Registry) AddView(view string, a *Action) {
	r.views[view] = append(r.views[view], a)
}

// Hints returns the visible bindings for view: page bindings first.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, a := range r.views[view] {
		if a.Visible {
			hints = append(hints, a.hint())
		}
	}
	for _, a := range r.global {
		if a.Visible {
			hints = append(hints, a.hint())
		}
	}
	return hints
}

// HandleEvent runs the first binding matching ev and reports whether one did.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
