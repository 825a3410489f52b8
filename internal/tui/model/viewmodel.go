// Package model holds the console's client-side state: the last daemon
// snapshot, the list filter and transient notifications.
package model

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/conversation"
)

const searchLimit = 50

var (
	// ErrNoConversation is returned by sends when nothing is open.
	ErrNoConversation = errors.New("no conversation is open")
	// ErrEmptyMessage is returned for a blank composer submit.
	ErrEmptyMessage = errors.New("message is empty")
)

// Daemon is the part of the daemon client the console uses.
type Daemon interface {
	Snapshot(ctx context.Context) (*api.Snapshot, error)
	Select(ctx context.Context, id string) (*api.Snapshot, error)
	SendText(ctx context.Context, conversationID, body string) (*api.Message, error)
	SendTemplate(ctx context.Context, conversationID, name string, params []api.Param) (*api.Message, error)
	Search(ctx context.Context, query, conversationID string, limit int) ([]api.SearchHit, error)
}

// ViewModel caches the daemon snapshot between refreshes.
type ViewModel struct {
	mu     sync.RWMutex
	daemon Daemon
	snap   api.Snapshot
	filter string
}

// NewViewModel creates a view model backed by d.
func NewViewModel(d Daemon) *ViewModel {
	return &ViewModel{daemon: d}
}

// Refresh fetches a new snapshot.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	s, err := vm.daemon.Snapshot(ctx)
	if err != nil {
		return err
	}
	vm.set(s)
	return nil
}

// Open makes id the active conversation.
func (vm *ViewModel) Open(ctx context.Context, id string) error {
	s, err := vm.daemon.Select(ctx, id)
	if err != nil {
		return err
	}
	vm.set(s)
	return nil
}

// SendText sends body to the open conversation.
func (vm *ViewModel) SendText(ctx context.Context, body string) (*api.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	id := vm.ActiveID()
	if id == "" {
		return nil, ErrNoConversation
	}
	return vm.daemon.SendText(ctx, id, body)
}

// SendTemplate sends template name to the open conversation. args are
// name=value pairs in template order.
func (vm *ViewModel) SendTemplate(ctx context.Context, name string, args []string) (*api.Message, error) {
	id := vm.ActiveID()
	if id == "" {
		return nil, ErrNoConversation
	}
	params, err := api.ParseParams(args)
	if err != nil {
		return nil, err
	}
	return vm.daemon.SendTemplate(ctx, id, name, params)
}

// Search runs a full-text query over all conversations.
func (vm *ViewModel) Search(ctx context.Context, query string) ([]api.SearchHit, error) {
	return vm.daemon.Search(ctx, query, "", searchLimit)
}

// SetFilter sets the conversation list filter.
func (vm *ViewModel) SetFilter(q string) {
	vm.mu.Lock()
	vm.filter = strings.TrimSpace(q)
	vm.mu.Unlock()
}

// Filter returns the conversation list filter.
func (vm *ViewModel) Filter() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.filter
}

// Snapshot returns a copy of the last snapshot.
func (vm *ViewModel) Snapshot() api.Snapshot {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	s := vm.snap
	s.Summaries = append([]api.Summary(nil), vm.snap.Summaries...)
	s.Transcript = append([]api.Message(nil), vm.snap.Transcript...)
	s.Pending = append([]api.PendingSend(nil), vm.snap.Pending...)
	return s
}

// ActiveID returns the open conversation id.
func (vm *ViewModel) ActiveID() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.snap.ActiveID
}

// Active returns the summary of the open conversation.
func (vm *ViewModel) Active() (api.Summary, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.summaryLocked(vm.snap.ActiveID)
}

// Visible returns the summaries that pass the filter, in list order.
func (vm *ViewModel) Visible() []api.Summary {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.filter == "" {
		return append([]api.Summary(nil), vm.snap.Summaries...)
	}

	byID := make(map[string]api.Summary, len(vm.snap.Summaries))
	domain := make([]conversation.Summary, len(vm.snap.Summaries))
	for i, s := range vm.snap.Summaries {
		byID[s.ID] = s
		domain[i] = s.Domain()
	}
	var out []api.Summary
	for _, s := range conversation.Filter(domain, vm.filter) {
		out = append(out, byID[s.ID])
	}
	return out
}

// Resolve finds a conversation by exact id, then by filter match on name
// or address.
func (vm *ViewModel) Resolve(target string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if s, ok := vm.summaryLocked(target); ok {
		return s.ID, true
	}
	domain := make([]conversation.Summary, len(vm.snap.Summaries))
	for i, s := range vm.snap.Summaries {
		domain[i] = s.Domain()
	}
	if m := conversation.Filter(domain, target); len(m) > 0 {
		return m[0].ID, true
	}
	return "", false
}

func (vm *ViewModel) summaryLocked(id string) (api.Summary, bool) {
	if id == "" {
		return api.Summary{}, false
	}
	for _, s := range vm.snap.Summaries {
		if s.ID == id {
			return s, true
		}
	}
	return api.Summary{}, false
}

func (vm *ViewModel) set(s *api.Snapshot) {
	if s == nil {
		return
	}
	vm.mu.Lock()
	vm.snap = *s
	vm.mu.Unlock()
}
