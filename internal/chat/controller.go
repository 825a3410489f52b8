// Package chat runs the live chat session: it loads the conversation list,
// applies real-time events in arrival order and exposes sends and snapshots.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/wppdesk/internal/bus"
	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/outbox"
	"github.com/matheus3301/wppdesk/internal/status"
	"github.com/matheus3301/wppdesk/internal/wire"
	"go.uber.org/zap"
)

// ErrNoTransportAddress is the one initialization failure: without a
// real-time address the session stays read-only.
var ErrNoTransportAddress = errors.New("no transport address configured")

// ErrUnknownConversation is returned by Select for an id with no summary.
var ErrUnknownConversation = outbox.ErrUnknownConversation

const defaultHistoryLimit = 200

// Backend is the summary and history source.
type Backend interface {
	ListSummaries(ctx context.Context) ([]conversation.Summary, error)
	FetchHistory(ctx context.Context, conversationID, address string) ([]conversation.Message, error)
}

// Cache is the offline fallback for Backend.
type Cache interface {
	ListSummaries(limit int) ([]conversation.Summary, error)
	ListMessages(conversationID string, beforeMs int64, limit int) ([]conversation.Message, error)
}

// Transport is the real-time channel.
type Transport interface {
	Open(ctx context.Context, url string)
	Close()
}

// Sender performs optimistic sends.
type Sender interface {
	SendText(ctx context.Context, conversationID, body string) (conversation.Message, error)
	SendTemplate(ctx context.Context, conversationID, name string, params conversation.Params) (conversation.Message, error)
	Pending() []outbox.PendingSend
}

// Config holds controller settings.
type Config struct {
	TransportURL string
	HistoryLimit int
	Prefixes     []string
}

// Deps are the collaborators of a Controller. Cache may be nil.
type Deps struct {
	Store     *conversation.Store
	Inbox     *Inbox
	Transport Transport
	Backend   Backend
	Cache     Cache
	Sender    Sender
	Machine   *status.Machine
	Bus       *bus.Bus
	Logger    *zap.Logger
}

// Source tells where the current data came from.
type Source string

const (
	SourceNone    Source = ""
	SourceBackend Source = "backend"
	SourceCache   Source = "cache"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	conversation.View
	Connectivity      status.State
	ConnectivitySince time.Time
	InitError         error
	Pending           []outbox.PendingSend
	Source            Source
}

// Controller owns one chat session.
type Controller struct {
	cfg       Config
	store     *conversation.Store
	inbox     *Inbox
	transport Transport
	backend   Backend
	cache     Cache
	sender    Sender
	machine   *status.Machine
	bus       *bus.Bus
	logger    *zap.Logger
	decoder   *wire.Decoder

	mu      sync.Mutex
	started bool
	stopped bool
	initErr error
	source  Source
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a controller. Nothing runs until Start.
func New(cfg Config, d Deps) *Controller {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if d.Store == nil {
		d.Store = conversation.NewStore()
	}
	if d.Inbox == nil {
		d.Inbox = NewInbox(0)
	}
	if d.Machine == nil {
		d.Machine = status.NewMachine(d.Bus)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Controller{
		cfg:       cfg,
		store:     d.Store,
		inbox:     d.Inbox,
		transport: d.Transport,
		backend:   d.Backend,
		cache:     d.Cache,
		sender:    d.Sender,
		machine:   d.Machine,
		bus:       d.Bus,
		logger:    d.Logger,
		decoder:   wire.NewDecoder(cfg.Prefixes...),
	}
}

// Start loads the conversation list and the first transcript, then opens
// the real-time channel. It returns ErrNoTransportAddress when no address
// is configured; the controller stays usable read-only in that case.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(runCtx, c.done)

	if err := c.loadSummaries(ctx); err != nil {
		c.logger.Warn("conversation list unavailable", zap.Error(err))
	}

	if c.cfg.TransportURL == "" || c.transport == nil {
		c.mu.Lock()
		c.initErr = ErrNoTransportAddress
		c.mu.Unlock()
		c.logger.Error("real-time channel disabled", zap.Error(ErrNoTransportAddress))
		return ErrNoTransportAddress
	}

	if err := c.machine.Transition(status.Connecting); err != nil {
		c.logger.Debug("connectivity transition skipped", zap.Error(err))
	}
	c.transport.Open(runCtx, c.cfg.TransportURL)
	return nil
}

// Stop closes the channel and stops the event goroutine.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if c.transport != nil {
		c.transport.Close()
	}
	if c.machine.Current() != status.Disconnected {
		_ = c.machine.Transition(status.Disconnected)
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

// Select opens a conversation and loads its history. A history load that
// is superseded by a later Select is discarded.
func (c *Controller) Select(ctx context.Context, id string) error {
	if _, ok := c.store.Summary(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}
	ticket := c.store.SelectActive(id)
	if sum, ok := c.store.Summary(id); ok {
		c.bus.Emit(bus.KindConversationSelected, SummaryChanged{Summary: sum})
	}
	return c.loadTranscript(ctx, ticket)
}

// SendText sends body to a conversation.
func (c *Controller) SendText(ctx context.Context, conversationID, body string) (conversation.Message, error) {
	if c.sender == nil {
		return conversation.Message{}, errors.New("sending is not available")
	}
	return c.sender.SendText(ctx, conversationID, body)
}

// SendTemplate sends a template instantiation to a conversation.
func (c *Controller) SendTemplate(ctx context.Context, conversationID, name string, params conversation.Params) (conversation.Message, error) {
	if c.sender == nil {
		return conversation.Message{}, errors.New("sending is not available")
	}
	return c.sender.SendTemplate(ctx, conversationID, name, params)
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		View:              c.store.Snapshot(),
		Connectivity:      c.machine.Current(),
		ConnectivitySince: c.machine.Since(),
	}
	if c.sender != nil {
		s.Pending = c.sender.Pending()
	}
	c.mu.Lock()
	s.InitError = c.initErr
	s.Source = c.source
	c.mu.Unlock()
	return s
}

func (c *Controller) loadSummaries(ctx context.Context) error {
	list, src, err := c.fetchSummaries(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.source = src
	c.mu.Unlock()

	ticket, activated := c.store.LoadSummaries(list)
	c.logger.Info("conversations loaded", zap.Int("count", len(list)), zap.String("source", string(src)))
	c.bus.Emit(bus.KindConversationsLoaded, SummariesLoaded{Summaries: list, FromCache: src == SourceCache})

	if activated {
		if err := c.loadTranscript(ctx, ticket); err != nil {
			c.logger.Warn("initial transcript unavailable", zap.String("conversation_id", ticket.ConversationID), zap.Error(err))
		}
	}
	return nil
}

func (c *Controller) fetchSummaries(ctx context.Context) ([]conversation.Summary, Source, error) {
	var backendErr error
	if c.backend != nil {
		list, err := c.backend.ListSummaries(ctx)
		if err == nil {
			return list, SourceBackend, nil
		}
		backendErr = err
		c.logger.Warn("summary api failed, trying cache", zap.Error(err))
	}
	if c.cache == nil {
		if backendErr == nil {
			backendErr = errors.New("no summary source")
		}
		return nil, SourceNone, backendErr
	}
	list, err := c.cache.ListSummaries(0)
	if err != nil {
		return nil, SourceNone, errors.Join(backendErr, fmt.Errorf("cache: %w", err))
	}
	return list, SourceCache, nil
}

func (c *Controller) loadTranscript(ctx context.Context, ticket conversation.LoadTicket) error {
	id := ticket.ConversationID
	sum, _ := c.store.Summary(id)

	var backendErr error
	if c.backend != nil {
		msgs, err := c.backend.FetchHistory(ctx, id, sum.Address)
		if err == nil {
			c.installTranscript(ticket, msgs, false)
			return nil
		}
		backendErr = err
		c.logger.Warn("history api failed", zap.String("conversation_id", id), zap.Error(err))
	}
	if c.cache == nil {
		if backendErr == nil {
			backendErr = errors.New("no history source")
		}
		return backendErr
	}
	msgs, err := c.cache.ListMessages(id, 0, c.cfg.HistoryLimit)
	if err != nil {
		return errors.Join(backendErr, fmt.Errorf("cache: %w", err))
	}
	c.installTranscript(ticket, msgs, true)
	return nil
}

func (c *Controller) installTranscript(ticket conversation.LoadTicket, msgs []conversation.Message, fromCache bool) {
	if !c.store.ApplyTranscript(ticket, msgs) {
		c.logger.Debug("discarded stale transcript", zap.String("conversation_id", ticket.ConversationID))
		return
	}
	c.bus.Emit(bus.KindTranscriptLoaded, TranscriptLoaded{ConversationID: ticket.ConversationID, Messages: msgs, FromCache: fromCache})
}

func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case s := <-c.inbox.ch:
			c.handle(s)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) handle(s signal) {
	if !s.isFrame {
		if c.machine.Observe(s.up) {
			c.logger.Info("connectivity changed", zap.String("state", string(c.machine.Current())))
		}
		return
	}

	switch ev := c.decoder.Decode(s.frame).(type) {
	case wire.NewMessage:
		c.applyNewMessage(ev)
	case wire.StatusUpdate:
		applied := c.store.ApplyStatusUpdate(ev.MessageID, ev.Status)
		c.bus.Emit(bus.KindTranscriptStatus, StatusChanged{MessageID: ev.MessageID, Status: ev.Status, Applied: applied})
	case wire.Malformed:
		c.logger.Warn("dropped malformed frame", zap.Error(ev.Err), zap.Int("bytes", len(ev.Raw)))
	case wire.Ignored:
		c.logger.Debug("ignored frame", zap.String("type", ev.Type))
	}
}

func (c *Controller) applyNewMessage(ev wire.NewMessage) {
	res := c.store.ApplyIncomingMessage(ev.Message, ev.ConversationID)
	if res.ConversationID == "" {
		c.logger.Debug("dropped message without conversation", zap.String("message_id", ev.Message.ID.String()))
		return
	}
	if ev.Counterpart != nil {
		c.store.Describe(res.ConversationID, ev.Counterpart.Name, ev.Counterpart.Address, ev.Counterpart.Avatar)
	}
	c.bus.Emit(bus.KindMessageReceived, MessageReceived{
		ConversationID: res.ConversationID,
		Message:        ev.Message,
		Appended:       res.Appended,
	})
	if sum, ok := c.store.Summary(res.ConversationID); ok {
		c.bus.Emit(bus.KindConversationUpserted, SummaryChanged{Summary: sum})
	}
}
